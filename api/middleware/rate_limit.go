package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/printshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy caps requests per user within a fixed window.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int
}

// NewRateLimitPolicy builds a named per-user policy.
func NewRateLimitPolicy(name string, window time.Duration, limit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  limit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p RateLimitPolicy) scope(userID int64) string {
	name := p.name
	if name == "" {
		name = "default"
	}
	return "user:" + name + ":" + strconv.FormatInt(userID, 10)
}

// UserRateLimit rejects requests once the authenticated user exceeds the
// policy. It must run after Auth.
func UserRateLimit(policy RateLimitPolicy, store fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := UserIDFromContext(ctx)
			if userID <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(userID), int64(policy.limit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":         policy.name,
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					}), "rate_limit.blocked")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
