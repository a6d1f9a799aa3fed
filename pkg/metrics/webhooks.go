package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics counts payment events by type and result.
type WebhookMetrics struct {
	events *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer, namespace string) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_events_total",
		Help:      "Payment provider events by type and result.",
	}, []string{"type", "result"})
	reg.MustRegister(events)
	return &WebhookMetrics{events: events}
}

// Inc records one event result.
func (w *WebhookMetrics) Inc(eventType, result string) {
	if w == nil || w.events == nil {
		return
	}
	w.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}
