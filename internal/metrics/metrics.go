package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the planning service instrumentation. One instance is
// created per process and injected; collectors register on the default
// registry via promauto.
type Metrics struct {
	ComparisonsTotal *prometheus.CounterVec
	CurveFitsTotal   *prometheus.CounterVec
	SweepsTotal      prometheus.Counter
	CompareDuration  prometheus.Histogram
	SnapshotHits     prometheus.Counter
	SnapshotMisses   prometheus.Counter
}

// New registers and returns the planning metrics on the default registry
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors on a caller-supplied registry. A nil
// registry skips registration entirely, which keeps repeated construction
// in tests panic-free.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ComparisonsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "droplab",
			Subsystem: "planning",
			Name:      "comparisons_total",
			Help:      "Performance comparisons served, labeled by recommendation.",
		}, []string{"recommendation"}),

		CurveFitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "droplab",
			Subsystem: "planning",
			Name:      "curve_fits_total",
			Help:      "Curve configurations derived, labeled by estimation path.",
		}, []string{"path"}),

		SweepsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "droplab",
			Subsystem: "planning",
			Name:      "fleet_sweeps_total",
			Help:      "Fleet-wide sweep evaluations run.",
		}),

		CompareDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "droplab",
			Subsystem: "planning",
			Name:      "compare_duration_seconds",
			Help:      "Wall time of one performance comparison.",
			Buckets:   prometheus.DefBuckets,
		}),

		SnapshotHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "droplab",
			Subsystem: "planning",
			Name:      "snapshot_cache_hits_total",
			Help:      "Fleet snapshot lookups answered from cache.",
		}),

		SnapshotMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "droplab",
			Subsystem: "planning",
			Name:      "snapshot_cache_misses_total",
			Help:      "Fleet snapshot lookups that hit the data source.",
		}),
	}
}
