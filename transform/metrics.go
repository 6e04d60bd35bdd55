package transform

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Phase labels used by Metrics.
const (
	PhaseFlat         = "flat"
	PhaseHierarchical = "hierarchical"
)

// Metrics are the Prometheus collectors of a Propagator.
type Metrics struct {
	Frames            prometheus.Counter
	IntegrityFailures prometheus.Counter
	Roots             prometheus.Gauge
	Entities          *prometheus.CounterVec
	PhaseDuration     *prometheus.HistogramVec
}

// NewMetrics creates the propagation collectors and registers them on reg.
// A nil reg leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: "raikou",
			Subsystem: "transform",
			Name:      "propagations_total",
			Help:      "Total number of propagation steps run",
		}),
		IntegrityFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "raikou",
			Subsystem: "transform",
			Name:      "integrity_failures_total",
			Help:      "Propagation steps aborted by a hierarchy integrity violation",
		}),
		Roots: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "raikou",
			Subsystem: "transform",
			Name:      "roots",
			Help:      "Hierarchy roots walked by the last propagation step",
		}),
		Entities: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raikou",
			Subsystem: "transform",
			Name:      "entities_updated_total",
			Help:      "GlobalTransforms written, by phase",
		}, []string{"phase"}),
		PhaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "raikou",
			Subsystem: "transform",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each propagation phase",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}, []string{"phase"}),
	}
}
