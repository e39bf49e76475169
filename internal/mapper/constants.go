// Package mapper converts Que status documents into normalized HVAC records.
package mapper

// Sensor kinds
const (
	// KindMasterController marks a zone array entry that mirrors the wall
	// controller rather than a real zone.
	KindMasterController = "MASTER_CONTROLLER"
)

// Prometheus metric label names
const (
	LabelSerial   = "serial"
	LabelZone     = "zone"
	LabelSensorID = "sensor_id"
	LabelMode     = "mode"
	LabelSetpoint = "setpoint"
)

// Temperature map keys
const (
	TempMaster            = "master"
	TempOutdoor           = "outdoor"
	TempCompressorChasing = "compressor_chasing"
	TempCompressorLive    = "compressor_live"
)

// Readings at or above this are sensor faults, not temperatures.
const maxValidTemperature = 100.0
