package objdiff

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/signadot/objdiff/shape"
)

var (
	comparisons = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "objdiff",
		Name:      "comparisons_total",
		Help:      "Comparisons by result (changed, unchanged or error)",
	}, []string{"result"})

	changeCount = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "objdiff",
		Name:      "changes",
		Help:      "Number of changes per successful comparison",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "objdiff",
		Name:      "comparison_duration_seconds",
		Help:      "Time spent per comparison",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
	})
)

// Collectors returns the metrics of objdiff, descriptor resolution
// included, for registration with a prometheus registry.
func Collectors() []prometheus.Collector {
	return append([]prometheus.Collector{comparisons, changeCount, duration}, shape.Collectors()...)
}
