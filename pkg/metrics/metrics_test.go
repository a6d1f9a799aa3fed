package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsOutcomesAndAbortedStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg, "test")
	m.Observe(OutcomeSuccess, "", 120*time.Millisecond)
	m.Observe(OutcomeAborted, "cart_cleared", 80*time.Millisecond)
	m.Observe(OutcomeAborted, "", 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "test_checkout_total", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "test_checkout_total", "outcome", OutcomeAborted); err != nil {
		t.Fatalf("fetch aborted: %v", err)
	} else if got != 2 {
		t.Fatalf("expected aborted=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "test_checkout_aborted_total", "step", "cart_cleared"); err != nil {
		t.Fatalf("fetch step: %v", err)
	} else if got != 1 {
		t.Fatalf("expected cart_cleared=1, got %f", got)
	}
	if _, err := fetchCounterValue(mfs, "test_checkout_aborted_total", "step", "unknown"); err != nil {
		t.Fatalf("empty step should be recorded as unknown: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "test_checkout_duration_seconds", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestWebhookAndWorkerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	webhooks := NewWebhookMetrics(reg, "test")
	workers := NewWorkerMetrics(reg, "test")

	webhooks.Inc("payment_intent.succeeded", "processed")
	webhooks.Inc("payment_intent.succeeded", "processed")
	workers.IncProcessed("payments")
	workers.IncFailed("payments")
	workers.IncDeadLettered("payments")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "test_payment_events_total", "type", "payment_intent.succeeded"); err != nil {
		t.Fatalf("fetch webhook: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 webhook events, got %f", got)
	}
	for _, name := range []string{"test_worker_processed_total", "test_worker_failed_total", "test_worker_dead_lettered_total"} {
		if got, err := fetchCounterValue(mfs, name, "worker", "payments"); err != nil {
			t.Fatalf("fetch %s: %v", name, err)
		} else if got != 1 {
			t.Fatalf("expected %s=1, got %f", name, got)
		}
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewCheckoutMetrics(nil, "test").Observe(OutcomeSuccess, "", time.Second)
	NewWebhookMetrics(nil, "test").Inc("x", "y")
	NewWorkerMetrics(nil, "test").IncProcessed("payments")

	var m *CheckoutMetrics
	m.Observe(OutcomeAborted, "started", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
