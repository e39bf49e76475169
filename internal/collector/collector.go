// Package collector implements the Prometheus collector interface for Que units.
package collector

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"que_bridge/internal/mapper"
	"que_bridge/internal/types"
)

var (
	climateModes    = []types.ClimateMode{types.ClimateAuto, types.ClimateCool, types.ClimateHeat, types.ClimateFan}
	compressorModes = []types.CompressorMode{types.CompressorOff, types.CompressorHeat, types.CompressorCool}
	fanModes        = []types.FanMode{
		types.FanAuto, types.FanLow, types.FanMedium, types.FanHigh,
		types.FanAutoCont, types.FanLowCont, types.FanMediumCont, types.FanHighCont,
	}
)

// Source provides the cached unit state.
type Source interface {
	Serial() string
	Snapshot() types.HvacStatus
}

// HvacCollector implements prometheus.Collector over the cached unit state.
// Scrapes never call the cloud; the poller keeps the cache current.
type HvacCollector struct {
	source  Source
	logger  *slog.Logger
	metrics *MetricSet
}

// NewHvacCollector creates a new collector.
func NewHvacCollector(source Source, logger *slog.Logger) *HvacCollector {
	return &HvacCollector{
		source:  source,
		logger:  logger,
		metrics: newMetricSet(),
	}
}

// Describe implements prometheus.Collector.
func (c *HvacCollector) Describe(ch chan<- *prometheus.Desc) {
	// Temperature metrics
	ch <- c.metrics.masterTemp
	ch <- c.metrics.outdoorTemp
	ch <- c.metrics.compressorChasingTemp
	ch <- c.metrics.compressorLiveTemp
	ch <- c.metrics.masterSetpoint
	ch <- c.metrics.masterHumidity

	// Status metrics
	ch <- c.metrics.cloudConnected
	ch <- c.metrics.apiError

	// Mode/status metrics
	ch <- c.metrics.power
	ch <- c.metrics.climateMode
	ch <- c.metrics.fanMode
	ch <- c.metrics.compressorMode
	ch <- c.metrics.fanRunning
	ch <- c.metrics.awayMode
	ch <- c.metrics.quietMode
	ch <- c.metrics.controlAllZones

	// Zone metrics
	ch <- c.metrics.zoneTemp
	ch <- c.metrics.zoneHumidity
	ch <- c.metrics.zoneSetpoint
	ch <- c.metrics.zoneEnabled
	ch <- c.metrics.zoneBattery

	// Scrape metrics
	c.metrics.scrapeDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *HvacCollector) Collect(ch chan<- prometheus.Metric) {
	start := time.Now()
	defer func() {
		c.metrics.scrapeDuration.Observe(time.Since(start).Seconds())
		c.metrics.scrapeDuration.Collect(ch)
	}()

	status := c.source.Snapshot()
	labels := []string{c.source.Serial()}

	c.emitStatusMetrics(ch, labels, status)

	// Nothing has been polled yet.
	if status.PowerState == "" {
		c.logger.Debug("No cached status to export")
		return
	}

	c.emitTemperatureMetrics(ch, labels, status)
	c.emitModeMetrics(ch, labels, status)
	c.emitZoneMetrics(ch, labels[0], status.Zones)
}

// emitStatusMetrics emits connectivity metrics.
func (c *HvacCollector) emitStatusMetrics(ch chan<- prometheus.Metric, labels []string, s types.HvacStatus) {
	ch <- prometheus.MustNewConstMetric(c.metrics.cloudConnected, prometheus.GaugeValue, boolValue(s.CloudConnected), labels...)
	ch <- prometheus.MustNewConstMetric(c.metrics.apiError, prometheus.GaugeValue, boolValue(s.APIError), labels...)
}

// emitTemperatureMetrics emits unit temperatures, setpoints and humidity.
func (c *HvacCollector) emitTemperatureMetrics(ch chan<- prometheus.Metric, labels []string, s types.HvacStatus) {
	tempDescs := map[string]*prometheus.Desc{
		mapper.TempMaster:            c.metrics.masterTemp,
		mapper.TempOutdoor:           c.metrics.outdoorTemp,
		mapper.TempCompressorChasing: c.metrics.compressorChasingTemp,
		mapper.TempCompressorLive:    c.metrics.compressorLiveTemp,
	}

	for name, value := range mapper.TemperaturesToMap(s) {
		if desc, ok := tempDescs[name]; ok {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, labels...)
		}
	}

	ch <- prometheus.MustNewConstMetric(c.metrics.masterSetpoint, prometheus.GaugeValue, s.MasterCoolSetpoint, append(labels, "cool")...)
	ch <- prometheus.MustNewConstMetric(c.metrics.masterSetpoint, prometheus.GaugeValue, s.MasterHeatSetpoint, append(labels, "heat")...)

	if s.MasterHumidity.Supported {
		ch <- prometheus.MustNewConstMetric(c.metrics.masterHumidity, prometheus.GaugeValue, s.MasterHumidity.Percent, labels...)
	}
}

// emitModeMetrics emits power, one-hot mode and toggle metrics.
func (c *HvacCollector) emitModeMetrics(ch chan<- prometheus.Metric, labels []string, s types.HvacStatus) {
	ch <- prometheus.MustNewConstMetric(c.metrics.power, prometheus.GaugeValue, boolValue(s.PowerState == types.PowerOn), labels...)

	for _, m := range climateModes {
		ch <- prometheus.MustNewConstMetric(c.metrics.climateMode, prometheus.GaugeValue, boolValue(m == s.ClimateMode), append(labels, string(m))...)
	}
	for _, m := range fanModes {
		ch <- prometheus.MustNewConstMetric(c.metrics.fanMode, prometheus.GaugeValue, boolValue(m == s.FanMode), append(labels, string(m))...)
	}
	for _, m := range compressorModes {
		ch <- prometheus.MustNewConstMetric(c.metrics.compressorMode, prometheus.GaugeValue, boolValue(m == s.CompressorMode), append(labels, string(m))...)
	}

	ch <- prometheus.MustNewConstMetric(c.metrics.fanRunning, prometheus.GaugeValue, boolValue(s.FanRunning), labels...)
	ch <- prometheus.MustNewConstMetric(c.metrics.awayMode, prometheus.GaugeValue, boolValue(s.AwayMode), labels...)
	ch <- prometheus.MustNewConstMetric(c.metrics.quietMode, prometheus.GaugeValue, boolValue(s.QuietMode), labels...)
	ch <- prometheus.MustNewConstMetric(c.metrics.controlAllZones, prometheus.GaugeValue, boolValue(s.ControlAllZones), labels...)
}

// emitZoneMetrics emits per-zone metrics.
func (c *HvacCollector) emitZoneMetrics(ch chan<- prometheus.Metric, serial string, zones []types.ZoneStatus) {
	for _, z := range zones {
		labels := []string{serial, z.Name, z.SensorID}

		ch <- prometheus.MustNewConstMetric(c.metrics.zoneTemp, prometheus.GaugeValue, z.CurrentTemp, labels...)
		ch <- prometheus.MustNewConstMetric(c.metrics.zoneEnabled, prometheus.GaugeValue, boolValue(z.Enabled), labels...)
		ch <- prometheus.MustNewConstMetric(c.metrics.zoneSetpoint, prometheus.GaugeValue, z.CoolSetpoint, append(labels, "cool")...)
		ch <- prometheus.MustNewConstMetric(c.metrics.zoneSetpoint, prometheus.GaugeValue, z.HeatSetpoint, append(labels, "heat")...)

		if z.Humidity.Supported {
			ch <- prometheus.MustNewConstMetric(c.metrics.zoneHumidity, prometheus.GaugeValue, z.Humidity.Percent, labels...)
		}
		if z.SensorBattery > 0 {
			ch <- prometheus.MustNewConstMetric(c.metrics.zoneBattery, prometheus.GaugeValue, z.SensorBattery, labels...)
		}
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
