package shape

import "github.com/prometheus/client_golang/prometheus"

var resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "objdiff",
	Subsystem: "shape",
	Name:      "resolutions_total",
	Help:      "Descriptor lookups by result (hit, miss or error)",
}, []string{"result"})

// Collectors returns the metrics of this package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{resolutions}
}
