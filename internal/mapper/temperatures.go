package mapper

import (
	"math"

	"que_bridge/internal/types"
)

// ExtractHumidity converts an optional vendor reading.
func ExtractHumidity(v *float64) types.Humidity {
	if v == nil {
		return types.Humidity{}
	}
	return types.Humidity{Percent: *v, Supported: true}
}

// TemperaturesToMap returns the unit-level temperatures keyed for metrics.
// Values are rounded to 1 decimal place and sensor faults are dropped.
func TemperaturesToMap(s types.HvacStatus) map[string]float64 {
	raw := map[string]float64{
		TempMaster:            s.MasterCurrentTemp,
		TempOutdoor:           s.OutdoorTemp,
		TempCompressorChasing: s.CompressorChasingTemp,
		TempCompressorLive:    s.CompressorCurrentTemp,
	}

	m := make(map[string]float64, len(raw))
	for k, v := range raw {
		if v >= maxValidTemperature {
			continue
		}
		m[k] = round1(v)
	}
	return m
}

// round1 rounds a float to 1 decimal place.
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
