package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// Logging emits one entry per request once the handler returns. Server
// errors log at warn; everything else at info.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := map[string]any{
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				fields["route"] = rctx.RoutePattern()
			}
			entry := logg.WithFields(ctx, fields)
			if status >= http.StatusInternalServerError {
				logg.Warn(entry, "request failed")
				return
			}
			logg.Info(entry, "request completed")
		})
	}
}
