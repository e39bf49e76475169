package mapper

import (
	"sort"

	"que_bridge/internal/types"
)

// NormalizeStatus converts a validated status document into an HvacStatus.
// It is pure: the same document always yields the same result.
func NormalizeStatus(doc types.StatusResponse) types.HvacStatus {
	st := doc.LastKnownState
	settings := st.UserAirconSettings

	status := types.HvacStatus{
		CloudConnected:        doc.IsOnline,
		PowerState:            ParsePowerState(settings.IsOn),
		ClimateMode:           ParseClimateMode(settings.Mode),
		CompressorMode:        ParseCompressorMode(st.LiveAircon.CompressorMode),
		FanMode:               ParseFanMode(settings.FanMode),
		FanRunning:            st.LiveAircon.AmRunningFan,
		AwayMode:              settings.AwayMode,
		QuietMode:             settings.QuietMode,
		MasterCurrentTemp:     st.MasterInfo.LiveTemp,
		MasterCoolSetpoint:    settings.CoolSetpoint,
		MasterHeatSetpoint:    settings.HeatSetpoint,
		MasterHumidity:        ExtractHumidity(st.MasterInfo.LiveHumidity),
		OutdoorTemp:           st.MasterInfo.LiveOutdoorTemp,
		CompressorChasingTemp: st.LiveAircon.CompressorChasingTemperature,
		CompressorCurrentTemp: st.LiveAircon.CompressorLiveTemperature,
		EnabledZones:          append([]bool(nil), settings.EnabledZones...),
	}
	if st.MasterInfo.ControlAllZones != nil {
		status.ControlAllZones = *st.MasterInfo.ControlAllZones
	}
	if st.MasterInfo.CloudReachable != nil {
		status.CloudConnected = status.CloudConnected && *st.MasterInfo.CloudReachable
	}

	status.Zones = ExtractZones(st.RemoteZoneInfo, settings.EnabledZones)
	return status
}

// ExtractZones returns the real zones in array order. Index is the raw array
// position, so placeholder entries still consume an index.
func ExtractZones(raw []types.RemoteZone, enabled []bool) []types.ZoneStatus {
	zones := make([]types.ZoneStatus, 0, len(raw))

	for i, rz := range raw {
		sensorID, sensor, ok := PrimarySensor(rz.Sensors)
		if !ok || sensor.Kind == KindMasterController {
			continue
		}

		zone := types.ZoneStatus{
			Name:            rz.Title,
			Index:           i,
			SensorID:        sensorID,
			Enabled:         i < len(enabled) && enabled[i],
			CurrentTemp:     rz.LiveTemp,
			Humidity:        ExtractHumidity(rz.LiveHumidity),
			MaxHeatSetpoint: rz.MaxHeatSetpoint,
			MinHeatSetpoint: rz.MinHeatSetpoint,
			MaxCoolSetpoint: rz.MaxCoolSetpoint,
			MinCoolSetpoint: rz.MinCoolSetpoint,
			HeatSetpoint:    rz.HeatSetpoint,
			CoolSetpoint:    rz.CoolSetpoint,
		}
		if sensor.Battery != nil {
			zone.SensorBattery = *sensor.Battery
		}
		zones = append(zones, zone)
	}

	return zones
}

// PrimarySensor returns the first sensor by sorted serial. ok is false when
// the zone has no sensors.
func PrimarySensor(sensors map[string]types.Sensor) (id string, sensor types.Sensor, ok bool) {
	if len(sensors) == 0 {
		return "", types.Sensor{}, false
	}

	ids := make([]string, 0, len(sensors))
	for k := range sensors {
		ids = append(ids, k)
	}
	sort.Strings(ids)

	return ids[0], sensors[ids[0]], true
}
