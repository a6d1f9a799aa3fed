package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHandlerServesMetricsAndLiveness(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewWorkerMetrics(reg, "test").IncProcessed("outbox-publisher")
	handler := Handler(reg)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `test_worker_processed_total{worker="outbox-publisher"} 1`) {
		t.Fatalf("missing worker counter in %q", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
}
