// Package metrics exposes Prometheus instrumentation for the registry and
// its host ledger. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)

// Metrics provides observability for registry operations.
type Metrics struct {
	// Operation attempts by op and outcome
	Operations *prometheus.CounterVec

	// Rejections by op and error code
	Rejections *prometheus.CounterVec

	// Events emitted by kind
	Events *prometheus.CounterVec

	// Token classes issued so far
	Classes prometheus.Gauge

	// Ledger transaction apply+persist latency
	ApplyLatency prometheus.Histogram
}

// New registers the registry metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_operations_total",
			Help: "Total registry operations by op and outcome",
		}, []string{"op", "outcome"}),

		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_rejections_total",
			Help: "Total rejected registry operations by op and error code",
		}, []string{"op", "code"}),

		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_events_total",
			Help: "Total events emitted by kind",
		}, []string{"kind"}),

		Classes: f.NewGauge(prometheus.GaugeOpts{
			Name: "engagement_token_classes",
			Help: "Number of token classes issued",
		}),

		ApplyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "engagement_ledger_apply_duration_seconds",
			Help:    "Duration of applying and persisting one ledger transaction",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// RecordOK counts a successful op.
func (m *Metrics) RecordOK(op string) {
	if m != nil {
		m.Operations.WithLabelValues(op, OutcomeOK).Inc()
	}
}

// RecordRejected counts a rejected op under its error code.
func (m *Metrics) RecordRejected(op, code string) {
	if m != nil {
		m.Operations.WithLabelValues(op, OutcomeRejected).Inc()
		m.Rejections.WithLabelValues(op, code).Inc()
	}
}

// RecordEvent counts one emitted event.
func (m *Metrics) RecordEvent(kind string) {
	if m != nil {
		m.Events.WithLabelValues(kind).Inc()
	}
}

// SetClasses records the current class counter.
func (m *Metrics) SetClasses(n uint64) {
	if m != nil {
		m.Classes.Set(float64(n))
	}
}

// ObserveApply records the duration of one ledger transaction.
func (m *Metrics) ObserveApply(d time.Duration) {
	if m != nil {
		m.ApplyLatency.Observe(d.Seconds())
	}
}
