package hvac

import "github.com/prometheus/client_golang/prometheus"

var refreshes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "que_refresh_total",
		Help: "Status refreshes by outcome (ok, stale, error)",
	},
	[]string{"outcome"},
)

// MetricsCollectors returns collectors for the reconciler.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{refreshes}
}
