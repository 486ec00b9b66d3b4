package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Import outcomes reported by Metrics.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics counts imports. A nil *Metrics records nothing.
type Metrics struct {
	imports   *prometheus.CounterVec
	resources prometheus.Counter
	duration  prometheus.Histogram
}

// NewMetrics creates the import metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mapimporter",
			Name:      "imports_total",
			Help:      "Map package imports by action and outcome.",
		}, []string{"action", "outcome"}),
		resources: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapimporter",
			Name:      "resources_attached_total",
			Help:      "Payload files attached to datasets.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mapimporter",
			Name:      "import_duration_seconds",
			Help:      "Wall time of map package imports.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.imports, m.resources, m.duration)
	return m
}

func (m *Metrics) observe(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(action, outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) resourceAttached() {
	if m == nil {
		return
	}
	m.resources.Inc()
}
