// Package types contains shared type definitions used across the que_bridge packages.
package types

// StatusResponse is the latest-status document returned for an AC system.
type StatusResponse struct {
	IsOnline       bool           `json:"isOnline"`
	LastKnownState LastKnownState `json:"lastKnownState"`
}

// LastKnownState is the device state tree inside a status document.
type LastKnownState struct {
	UserAirconSettings UserAirconSettings `json:"UserAirconSettings"`
	LiveAircon         LiveAircon         `json:"LiveAircon"`
	MasterInfo         MasterInfo         `json:"MasterInfo"`
	RemoteZoneInfo     []RemoteZone       `json:"RemoteZoneInfo"`
}

// UserAirconSettings holds the user-controlled unit settings.
type UserAirconSettings struct {
	IsOn         bool    `json:"isOn"`
	Mode         string  `json:"Mode"`
	FanMode      string  `json:"FanMode"`
	AwayMode     bool    `json:"AwayMode"`
	QuietMode    bool    `json:"QuietMode"`
	CoolSetpoint float64 `json:"TemperatureSetpoint_Cool_oC"`
	HeatSetpoint float64 `json:"TemperatureSetpoint_Heat_oC"`
	EnabledZones []bool  `json:"EnabledZones"`
}

// LiveAircon holds live compressor readings.
type LiveAircon struct {
	CompressorMode               string  `json:"CompressorMode"`
	CompressorChasingTemperature float64 `json:"CompressorChasingTemperature"`
	CompressorLiveTemperature    float64 `json:"CompressorLiveTemperature"`
	AmRunningFan                 bool    `json:"AmRunningFan"`
}

// MasterInfo holds master controller readings.
type MasterInfo struct {
	LiveTemp        float64  `json:"LiveTemp_oC"`
	LiveHumidity    *float64 `json:"LiveHumidity_pc,omitempty"`
	LiveOutdoorTemp float64  `json:"LiveOutdoorTemp_oC"`
	ControlAllZones *bool    `json:"ControlAllZones,omitempty"`
	CloudReachable  *bool    `json:"CloudReachable,omitempty"`
}

// RemoteZone is one entry of the vendor zone array. Placeholder entries for
// the master controller share the array with real zones.
type RemoteZone struct {
	Title           string            `json:"NV_Title"`
	LiveTemp        float64           `json:"LiveTemp_oC"`
	LiveHumidity    *float64          `json:"LiveHumidity_pc,omitempty"`
	MaxHeatSetpoint float64           `json:"MaxHeatSetpoint"`
	MinHeatSetpoint float64           `json:"MinHeatSetpoint"`
	MaxCoolSetpoint float64           `json:"MaxCoolSetpoint"`
	MinCoolSetpoint float64           `json:"MinCoolSetpoint"`
	HeatSetpoint    float64           `json:"TemperatureSetpoint_Heat_oC"`
	CoolSetpoint    float64           `json:"TemperatureSetpoint_Cool_oC"`
	Sensors         map[string]Sensor `json:"Sensors,omitempty"`
}

// Sensor is a zone sensor keyed by its serial in RemoteZone.Sensors.
type Sensor struct {
	Kind    string   `json:"NV_Kind"`
	Battery *float64 `json:"Battery_pc,omitempty"`
}

// SystemsResponse is the ac-systems listing.
type SystemsResponse struct {
	Embedded struct {
		Systems []System `json:"ac-system"`
	} `json:"_embedded"`
}

// System identifies one AC system on the account.
type System struct {
	Serial      string `json:"serial"`
	ID          string `json:"id"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// PairingResponse is returned when a client device is registered.
type PairingResponse struct {
	Expires      string `json:"expires"`
	PairingToken string `json:"pairingToken"`
}

// CommandResponse is returned by the command endpoint.
type CommandResponse struct {
	CorrelationID string `json:"correlationId"`
	Type          string `json:"type"`
	Value         struct {
		Type string `json:"type"`
	} `json:"value"`
}

// PowerState is the on/off state of the unit.
type PowerState string

const (
	PowerOn      PowerState = "ON"
	PowerOff     PowerState = "OFF"
	PowerUnknown PowerState = "UNKNOWN"
)

// ClimateMode is the selected operating mode.
type ClimateMode string

const (
	ClimateAuto    ClimateMode = "AUTO"
	ClimateCool    ClimateMode = "COOL"
	ClimateHeat    ClimateMode = "HEAT"
	ClimateFan     ClimateMode = "FAN"
	ClimateUnknown ClimateMode = "UNKNOWN"
)

// CompressorMode is what the compressor is currently doing.
type CompressorMode string

const (
	CompressorOff     CompressorMode = "OFF"
	CompressorHeat    CompressorMode = "HEAT"
	CompressorCool    CompressorMode = "COOL"
	CompressorUnknown CompressorMode = "UNKNOWN"
)

// FanMode is the selected fan speed. The -CONT variants keep the fan running
// after the setpoint is reached.
type FanMode string

const (
	FanAuto       FanMode = "AUTO"
	FanLow        FanMode = "LOW"
	FanMedium     FanMode = "MED"
	FanHigh       FanMode = "HIGH"
	FanAutoCont   FanMode = "AUTO-CONT"
	FanLowCont    FanMode = "LOW-CONT"
	FanMediumCont FanMode = "MED-CONT"
	FanHighCont   FanMode = "HIGH-CONT"
	FanUnknown    FanMode = "UNKNOWN"
)

// Humidity is a relative humidity reading. Supported is false when the
// sensor does not report humidity.
type Humidity struct {
	Percent   float64 `json:"percent"`
	Supported bool    `json:"supported"`
}

// HvacStatus is the normalized view of one status poll. When APIError is set
// no other field carries meaning.
type HvacStatus struct {
	APIError              bool           `json:"api_error"`
	CloudConnected        bool           `json:"cloud_connected"`
	PowerState            PowerState     `json:"power_state"`
	ClimateMode           ClimateMode    `json:"climate_mode"`
	CompressorMode        CompressorMode `json:"compressor_mode"`
	FanMode               FanMode        `json:"fan_mode"`
	FanRunning            bool           `json:"fan_running"`
	AwayMode              bool           `json:"away_mode"`
	QuietMode             bool           `json:"quiet_mode"`
	ControlAllZones       bool           `json:"control_all_zones"`
	MasterCurrentTemp     float64        `json:"master_current_temp"`
	MasterCoolSetpoint    float64        `json:"master_cool_setpoint"`
	MasterHeatSetpoint    float64        `json:"master_heat_setpoint"`
	MasterHumidity        Humidity       `json:"master_humidity"`
	OutdoorTemp           float64        `json:"outdoor_temp"`
	CompressorChasingTemp float64        `json:"compressor_chasing_temp"`
	CompressorCurrentTemp float64        `json:"compressor_current_temp"`
	EnabledZones          []bool         `json:"enabled_zones"`
	Zones                 []ZoneStatus   `json:"zones"`
}

// ZoneStatus is the normalized view of one zone. Index is the position in
// the vendor array for this poll only; SensorID is the durable identity.
type ZoneStatus struct {
	Name            string   `json:"name"`
	Index           int      `json:"index"`
	SensorID        string   `json:"sensor_id"`
	Enabled         bool     `json:"enabled"`
	CurrentTemp     float64  `json:"current_temp"`
	Humidity        Humidity `json:"humidity"`
	MaxHeatSetpoint float64  `json:"max_heat_setpoint"`
	MinHeatSetpoint float64  `json:"min_heat_setpoint"`
	MaxCoolSetpoint float64  `json:"max_cool_setpoint"`
	MinCoolSetpoint float64  `json:"min_cool_setpoint"`
	HeatSetpoint    float64  `json:"heat_setpoint"`
	CoolSetpoint    float64  `json:"cool_setpoint"`
	SensorBattery   float64  `json:"sensor_battery"`
}
