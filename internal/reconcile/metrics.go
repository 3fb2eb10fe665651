package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks pipeline outcomes for the /metrics endpoint.
type Metrics struct {
	runs              *prometheus.CounterVec
	records           *prometheus.CounterVec
	validationSeconds prometheus.Histogram
}

// NewMetrics registers the pipeline metrics with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciled_runs_total",
			Help: "Reconciliation runs by terminal status.",
		}, []string{"status"}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciled_receipts_processed_total",
			Help: "Receipts processed by result bucket.",
		}, []string{"result"}),
		validationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconciled_validation_duration_seconds",
			Help:    "Per-receipt validation duration.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}
}

func (m *Metrics) observeRun(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) observeRecord(result string, seconds float64) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(result).Inc()
	m.validationSeconds.Observe(seconds)
}
