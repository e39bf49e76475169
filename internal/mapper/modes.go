package mapper

import (
	"strings"

	"que_bridge/internal/types"
)

// ParsePowerState maps the vendor isOn flag.
func ParsePowerState(isOn bool) types.PowerState {
	if isOn {
		return types.PowerOn
	}
	return types.PowerOff
}

// ParseClimateMode maps a vendor mode string. Unknown values map to ClimateUnknown.
func ParseClimateMode(s string) types.ClimateMode {
	switch types.ClimateMode(strings.ToUpper(strings.TrimSpace(s))) {
	case types.ClimateAuto:
		return types.ClimateAuto
	case types.ClimateCool:
		return types.ClimateCool
	case types.ClimateHeat:
		return types.ClimateHeat
	case types.ClimateFan:
		return types.ClimateFan
	default:
		return types.ClimateUnknown
	}
}

// ParseCompressorMode maps a vendor compressor mode string.
func ParseCompressorMode(s string) types.CompressorMode {
	switch types.CompressorMode(strings.ToUpper(strings.TrimSpace(s))) {
	case types.CompressorOff:
		return types.CompressorOff
	case types.CompressorHeat:
		return types.CompressorHeat
	case types.CompressorCool:
		return types.CompressorCool
	default:
		return types.CompressorUnknown
	}
}

var fanModes = map[types.FanMode]struct{}{
	types.FanAuto:       {},
	types.FanLow:        {},
	types.FanMedium:     {},
	types.FanHigh:       {},
	types.FanAutoCont:   {},
	types.FanLowCont:    {},
	types.FanMediumCont: {},
	types.FanHighCont:   {},
}

// ParseFanMode maps a vendor fan mode string, including the continuous variants.
func ParseFanMode(s string) types.FanMode {
	m := types.FanMode(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := fanModes[m]; ok {
		return m
	}
	return types.FanUnknown
}

// IsContinuous reports whether m keeps the fan running between cycles.
func IsContinuous(m types.FanMode) bool {
	return strings.HasSuffix(string(m), "-CONT")
}
