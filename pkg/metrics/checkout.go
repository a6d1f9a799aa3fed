package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeAborted  = "aborted"
)

// CheckoutMetrics records order placement outcomes.
type CheckoutMetrics struct {
	outcomes *prometheus.CounterVec
	aborted  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer, namespace string) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	aborted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_aborted_total",
		Help:      "Aborted checkouts by the last step reached.",
	}, []string{"step"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Duration of checkout transactions in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(outcomes, aborted, duration)
	return &CheckoutMetrics{
		outcomes: outcomes,
		aborted:  aborted,
		duration: duration,
	}
}

// Observe records one checkout. step is only used for aborted checkouts.
func (c *CheckoutMetrics) Observe(outcome, step string, elapsed time.Duration) {
	if c == nil || c.outcomes == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.outcomes.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == OutcomeAborted {
		c.aborted.WithLabelValues(normalizeLabel(step)).Inc()
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
