package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// Handler exposes /metrics for gatherer plus a liveness probe, for binaries
// without an API router.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// Serve starts the metrics listener on port in the background. Callers own
// Shutdown.
func Serve(ctx context.Context, port string, gatherer prometheus.Gatherer, logg *logger.Logger) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           Handler(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && logg != nil {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	return server
}
