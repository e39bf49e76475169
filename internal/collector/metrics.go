package collector

import (
	"github.com/prometheus/client_golang/prometheus"

	"que_bridge/internal/mapper"
)

// MetricSet holds all Prometheus metric descriptors for the bridge.
type MetricSet struct {
	// Temperature metrics
	masterTemp            *prometheus.Desc
	outdoorTemp           *prometheus.Desc
	compressorChasingTemp *prometheus.Desc
	compressorLiveTemp    *prometheus.Desc
	masterSetpoint        *prometheus.Desc
	masterHumidity        *prometheus.Desc

	// Status metrics
	cloudConnected *prometheus.Desc
	apiError       *prometheus.Desc

	// Mode/status metrics
	power           *prometheus.Desc
	climateMode     *prometheus.Desc
	fanMode         *prometheus.Desc
	compressorMode  *prometheus.Desc
	fanRunning      *prometheus.Desc
	awayMode        *prometheus.Desc
	quietMode       *prometheus.Desc
	controlAllZones *prometheus.Desc

	// Zone metrics
	zoneTemp     *prometheus.Desc
	zoneHumidity *prometheus.Desc
	zoneSetpoint *prometheus.Desc
	zoneEnabled  *prometheus.Desc
	zoneBattery  *prometheus.Desc

	// Scrape metrics
	scrapeDuration prometheus.Histogram
}

// newMetricSet creates all metric descriptors.
func newMetricSet() *MetricSet {
	labels := []string{mapper.LabelSerial}
	labelsWithMode := []string{mapper.LabelSerial, mapper.LabelMode}
	labelsWithSetpoint := []string{mapper.LabelSerial, mapper.LabelSetpoint}
	zoneLabels := []string{mapper.LabelSerial, mapper.LabelZone, mapper.LabelSensorID}
	zoneLabelsWithSetpoint := []string{mapper.LabelSerial, mapper.LabelZone, mapper.LabelSensorID, mapper.LabelSetpoint}

	return &MetricSet{
		// Temperature metrics
		masterTemp: prometheus.NewDesc(
			"que_master_temperature_celsius",
			"Temperature at the master controller (°C)",
			labels, nil,
		),
		outdoorTemp: prometheus.NewDesc(
			"que_outdoor_temperature_celsius",
			"Outdoor temperature (°C)",
			labels, nil,
		),
		compressorChasingTemp: prometheus.NewDesc(
			"que_compressor_chasing_temperature_celsius",
			"Temperature the compressor is working towards (°C)",
			labels, nil,
		),
		compressorLiveTemp: prometheus.NewDesc(
			"que_compressor_live_temperature_celsius",
			"Temperature the compressor is currently measuring (°C)",
			labels, nil,
		),
		masterSetpoint: prometheus.NewDesc(
			"que_master_setpoint_celsius",
			"Master setpoint (°C) by kind (cool, heat)",
			labelsWithSetpoint, nil,
		),
		masterHumidity: prometheus.NewDesc(
			"que_master_humidity_percent",
			"Relative humidity at the master controller",
			labels, nil,
		),

		// Status metrics
		cloudConnected: prometheus.NewDesc(
			"que_cloud_connected",
			"Unit reachable through the cloud (1=yes, 0=no)",
			labels, nil,
		),
		apiError: prometheus.NewDesc(
			"que_api_error",
			"Last status refresh failed and cached values are stale (1=yes, 0=no)",
			labels, nil,
		),

		// Mode/status metrics
		power: prometheus.NewDesc(
			"que_power_on",
			"Unit power state (1=on, 0=off)",
			labels, nil,
		),
		climateMode: prometheus.NewDesc(
			"que_climate_mode",
			"Selected climate mode (1=active, 0=inactive)",
			labelsWithMode, nil,
		),
		fanMode: prometheus.NewDesc(
			"que_fan_mode",
			"Selected fan mode (1=active, 0=inactive)",
			labelsWithMode, nil,
		),
		compressorMode: prometheus.NewDesc(
			"que_compressor_mode",
			"Current compressor mode (1=active, 0=inactive)",
			labelsWithMode, nil,
		),
		fanRunning: prometheus.NewDesc(
			"que_fan_running",
			"Indoor fan running (1=yes, 0=no)",
			labels, nil,
		),
		awayMode: prometheus.NewDesc(
			"que_away_mode",
			"Away mode (1=on, 0=off)",
			labels, nil,
		),
		quietMode: prometheus.NewDesc(
			"que_quiet_mode",
			"Quiet mode (1=on, 0=off)",
			labels, nil,
		),
		controlAllZones: prometheus.NewDesc(
			"que_control_all_zones",
			"Master setpoint applies to all zones (1=on, 0=off)",
			labels, nil,
		),

		// Zone metrics
		zoneTemp: prometheus.NewDesc(
			"que_zone_temperature_celsius",
			"Zone sensor temperature (°C)",
			zoneLabels, nil,
		),
		zoneHumidity: prometheus.NewDesc(
			"que_zone_humidity_percent",
			"Zone sensor relative humidity",
			zoneLabels, nil,
		),
		zoneSetpoint: prometheus.NewDesc(
			"que_zone_setpoint_celsius",
			"Zone setpoint (°C) by kind (cool, heat)",
			zoneLabelsWithSetpoint, nil,
		),
		zoneEnabled: prometheus.NewDesc(
			"que_zone_enabled",
			"Zone enabled (1=yes, 0=no)",
			zoneLabels, nil,
		),
		zoneBattery: prometheus.NewDesc(
			"que_zone_sensor_battery_percent",
			"Zone sensor battery level",
			zoneLabels, nil,
		),

		// Scrape metrics
		scrapeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "que_scrape_duration_seconds",
			Help:    "Time spent rendering cached state",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}
}
