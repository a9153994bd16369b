package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PurchaseMetrics records submissions and approval decisions.
type PurchaseMetrics struct {
	submissions *prometheus.CounterVec
	decisions   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewPurchaseMetrics registers the purchase workflow metrics on the provided registerer.
func NewPurchaseMetrics(reg prometheus.Registerer) *PurchaseMetrics {
	if reg == nil {
		return &PurchaseMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_submissions_total",
		Help: "Purchase submissions by kind and result.",
	}, []string{"kind", "result"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_decisions_total",
		Help: "Approval decisions by kind and outcome.",
	}, []string{"kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "purchase_operation_duration_seconds",
		Help:    "Duration of purchase workflow operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(submissions, decisions, duration)
	return &PurchaseMetrics{
		submissions: submissions,
		decisions:   decisions,
		duration:    duration,
	}
}

// IncSubmission increments the submission counter for the given kind and result.
func (p *PurchaseMetrics) IncSubmission(kind, result string) {
	if p == nil || p.submissions == nil {
		return
	}
	p.submissions.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}

// IncDecision increments the decision counter for the given kind and outcome.
func (p *PurchaseMetrics) IncDecision(kind, outcome string) {
	if p == nil || p.decisions == nil {
		return
	}
	p.decisions.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// ObserveDuration records the duration for the named workflow operation.
func (p *PurchaseMetrics) ObserveDuration(operation string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
