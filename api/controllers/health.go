package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Printshop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and Redis before reporting ready.
func HealthReady(cfg *config.Config, db Pinger, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Printshop-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := []struct {
			name   string
			pinger Pinger
		}{
			{name: "database", pinger: db},
			{name: "redis", pinger: cache},
		}
		for _, check := range checks {
			if check.pinger == nil {
				continue
			}
			if err := check.pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unavailable").
					WithDetails(map[string]any{"check": check.name}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
