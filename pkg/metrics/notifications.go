package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics records dispatch and push delivery outcomes.
type NotificationMetrics struct {
	dispatched  *prometheus.CounterVec
	pushResults *prometheus.CounterVec
}

// NewNotificationMetrics registers the notification metrics on the provided registerer.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatched_total",
		Help: "Notifications dispatched by type and result.",
	}, []string{"type", "result"})
	pushResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_push_total",
		Help: "Push delivery attempts by result.",
	}, []string{"result"})
	reg.MustRegister(dispatched, pushResults)
	return &NotificationMetrics{
		dispatched:  dispatched,
		pushResults: pushResults,
	}
}

// IncDispatched increments the dispatch counter for the given type and result.
func (n *NotificationMetrics) IncDispatched(notificationType, result string) {
	if n == nil || n.dispatched == nil {
		return
	}
	n.dispatched.WithLabelValues(normalizeLabel(notificationType), normalizeLabel(result)).Inc()
}

// IncPush increments the push delivery counter for the given result.
func (n *NotificationMetrics) IncPush(result string) {
	if n == nil || n.pushResults == nil {
		return
	}
	n.pushResults.WithLabelValues(normalizeLabel(result)).Inc()
}
