package api

import "github.com/prometheus/client_golang/prometheus"

var (
	statusFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "que_status_fetch_duration_seconds",
			Help:    "Time spent retrieving the latest system status",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	commandResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "que_command_results_total",
			Help: "Command round trips by result",
		},
		[]string{"result"},
	)
)

// MetricsCollectors returns collectors for the API client.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		statusFetchDuration,
		commandResults,
	}
}
