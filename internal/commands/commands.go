// Package commands encodes control requests into the vendor's sparse
// set-settings documents.
package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind names a control request.
type Kind string

const (
	On  Kind = "ON"
	Off Kind = "OFF"

	ClimateModeAuto Kind = "CLIMATE_MODE_AUTO"
	ClimateModeCool Kind = "CLIMATE_MODE_COOL"
	ClimateModeHeat Kind = "CLIMATE_MODE_HEAT"
	ClimateModeFan  Kind = "CLIMATE_MODE_FAN"

	FanModeAuto       Kind = "FAN_MODE_AUTO"
	FanModeAutoCont   Kind = "FAN_MODE_AUTO_CONT"
	FanModeLow        Kind = "FAN_MODE_LOW"
	FanModeLowCont    Kind = "FAN_MODE_LOW_CONT"
	FanModeMedium     Kind = "FAN_MODE_MEDIUM"
	FanModeMediumCont Kind = "FAN_MODE_MEDIUM_CONT"
	FanModeHigh       Kind = "FAN_MODE_HIGH"
	FanModeHighCont   Kind = "FAN_MODE_HIGH_CONT"

	CoolSetPoint     Kind = "COOL_SET_POINT"
	HeatSetPoint     Kind = "HEAT_SET_POINT"
	HeatCoolSetPoint Kind = "HEAT_COOL_SET_POINT"

	ControlAllZonesOn  Kind = "CONTROL_ALL_ZONES_ON"
	ControlAllZonesOff Kind = "CONTROL_ALL_ZONES_OFF"
	AwayModeOn         Kind = "AWAY_MODE_ON"
	AwayModeOff        Kind = "AWAY_MODE_OFF"
	QuietModeOn        Kind = "QUIET_MODE_ON"
	QuietModeOff       Kind = "QUIET_MODE_OFF"

	ZoneEnable       Kind = "ZONE_ENABLE"
	ZoneDisable      Kind = "ZONE_DISABLE"
	ZoneCoolSetPoint Kind = "ZONE_COOL_SET_POINT"
	ZoneHeatSetPoint Kind = "ZONE_HEAT_SET_POINT"
)

// Vendor setting paths
const (
	PathPower           = "UserAirconSettings.isOn"
	PathMode            = "UserAirconSettings.Mode"
	PathFanMode         = "UserAirconSettings.FanMode"
	PathCoolSetpoint    = "UserAirconSettings.TemperatureSetpoint_Cool_oC"
	PathHeatSetpoint    = "UserAirconSettings.TemperatureSetpoint_Heat_oC"
	PathAwayMode        = "UserAirconSettings.AwayMode"
	PathQuietMode       = "UserAirconSettings.QuietMode"
	PathEnabledZones    = "UserAirconSettings.EnabledZones"
	PathControlAllZones = "MasterInfo.ControlAllZones"

	commandType = "set-settings"
)

var ErrUnknownKind = errors.New("unknown command kind")

var (
	climateModes = map[Kind]string{
		ClimateModeAuto: "AUTO",
		ClimateModeCool: "COOL",
		ClimateModeHeat: "HEAT",
		ClimateModeFan:  "FAN",
	}
	fanModes = map[Kind]string{
		FanModeAuto:       "AUTO",
		FanModeAutoCont:   "AUTO-CONT",
		FanModeLow:        "LOW",
		FanModeLowCont:    "LOW-CONT",
		FanModeMedium:     "MED",
		FanModeMediumCont: "MED-CONT",
		FanModeHigh:       "HIGH",
		FanModeHighCont:   "HIGH-CONT",
	}
	toggles = map[Kind]struct {
		path  string
		value bool
	}{
		On:                 {PathPower, true},
		Off:                {PathPower, false},
		ControlAllZonesOn:  {PathControlAllZones, true},
		ControlAllZonesOff: {PathControlAllZones, false},
		AwayModeOn:         {PathAwayMode, true},
		AwayModeOff:        {PathAwayMode, false},
		QuietModeOn:        {PathQuietMode, true},
		QuietModeOff:       {PathQuietMode, false},
	}
)

// Params carries the inputs a Kind may need. Zone kinds address the zone by
// its position in the latest status poll.
type Params struct {
	CoolSetpoint float64
	HeatSetpoint float64
	ZoneIndex    int
	EnabledZones []bool
}

// Document is the body posted to the command endpoint.
type Document struct {
	Command map[string]any `json:"command"`
}

// Settings returns the path assignments without the command type.
func (d Document) Settings() map[string]any {
	out := make(map[string]any, len(d.Command))
	for k, v := range d.Command {
		if k != "type" {
			out[k] = v
		}
	}
	return out
}

// Encode builds the sparse patch for kind.
func Encode(kind Kind, p Params) (Document, error) {
	cmd := map[string]any{}

	if mode, ok := climateModes[kind]; ok {
		cmd[PathMode] = mode
	} else if mode, ok := fanModes[kind]; ok {
		cmd[PathFanMode] = mode
	} else if t, ok := toggles[kind]; ok {
		cmd[t.path] = t.value
	} else {
		switch kind {
		case CoolSetPoint:
			cmd[PathCoolSetpoint] = p.CoolSetpoint
		case HeatSetPoint:
			cmd[PathHeatSetpoint] = p.HeatSetpoint
		case HeatCoolSetPoint:
			cmd[PathCoolSetpoint] = p.CoolSetpoint
			cmd[PathHeatSetpoint] = p.HeatSetpoint
		case ZoneEnable, ZoneDisable:
			zones, err := FlipZone(p.EnabledZones, p.ZoneIndex, kind == ZoneEnable)
			if err != nil {
				return Document{}, err
			}
			cmd[PathEnabledZones] = zones
		case ZoneCoolSetPoint:
			if p.ZoneIndex < 0 {
				return Document{}, fmt.Errorf("zone index %d out of range", p.ZoneIndex)
			}
			cmd[ZonePath(p.ZoneIndex, "TemperatureSetpoint_Cool_oC")] = p.CoolSetpoint
		case ZoneHeatSetPoint:
			if p.ZoneIndex < 0 {
				return Document{}, fmt.Errorf("zone index %d out of range", p.ZoneIndex)
			}
			cmd[ZonePath(p.ZoneIndex, "TemperatureSetpoint_Heat_oC")] = p.HeatSetpoint
		default:
			return Document{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
	}

	cmd["type"] = commandType
	return Document{Command: cmd}, nil
}

// FlipZone returns a copy of enabled with position index set to on. The
// input slice is never modified.
func FlipZone(enabled []bool, index int, on bool) ([]bool, error) {
	if len(enabled) == 0 {
		return nil, errors.New("enabled zone state is required")
	}
	if index < 0 || index >= len(enabled) {
		return nil, fmt.Errorf("zone index %d out of range [0,%d)", index, len(enabled))
	}
	out := append([]bool(nil), enabled...)
	out[index] = on
	return out, nil
}

// ZonePath addresses a setting of the zone at index.
func ZonePath(index int, field string) string {
	return fmt.Sprintf("RemoteZoneInfo[%d].%s", index, field)
}

// IsZone reports whether kind targets a single zone.
func (k Kind) IsZone() bool {
	return strings.HasPrefix(string(k), "ZONE_")
}

// Kinds lists every supported kind in sorted order.
func Kinds() []Kind {
	kinds := []Kind{CoolSetPoint, HeatSetPoint, HeatCoolSetPoint, ZoneEnable, ZoneDisable, ZoneCoolSetPoint, ZoneHeatSetPoint}
	for k := range climateModes {
		kinds = append(kinds, k)
	}
	for k := range fanModes {
		kinds = append(kinds, k)
	}
	for k := range toggles {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKind accepts a kind name in any case, with dashes or underscores.
func ParseKind(s string) (Kind, error) {
	want := Kind(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	for _, k := range Kinds() {
		if k == want {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
