package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/printshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/printshop-backend/pkg/redis"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	defaultIdempotencyTTL = 24 * time.Hour
	inFlightTTL           = 2 * time.Minute
	maxIdempotencyKeyLen  = 255

	// inFlightMarker holds the key while the first request is still running.
	inFlightMarker = "in-flight"
)

// IdempotencyStore is the Redis surface the middleware needs.
type IdempotencyStore interface {
	pkgredis.IdempotencyStore
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// IdempotencyRule marks a route whose responses can be replayed.
type IdempotencyRule struct {
	Method  string
	Pattern string
	TTL     time.Duration
}

// IdempotencyRoutes builds the replayable routes. Checkout uses
// checkoutTTL; adding to the cart keeps a day.
func IdempotencyRoutes(checkoutTTL time.Duration) []IdempotencyRule {
	if checkoutTTL <= 0 {
		checkoutTTL = defaultIdempotencyTTL
	}
	return []IdempotencyRule{
		{Method: http.MethodPost, Pattern: "/api/v1/checkout", TTL: checkoutTTL},
		{Method: http.MethodPost, Pattern: "/api/v1/cart", TTL: defaultIdempotencyTTL},
	}
}

type idempotencyRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the stored response when a request repeats its
// Idempotency-Key. The first request claims the key before running, so a
// concurrent duplicate gets 409 CONFLICT instead of a second checkout.
// Requests without the header pass through.
func Idempotency(store IdempotencyStore, rules []IdempotencyRule, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(rules, r.Method, routePattern(r))
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if !ok || store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key too long").
					WithDetails(map[string]any{"max_length": maxIdempotencyKeyLen}))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(requestScope(r), clientKey)

			claimed, err := store.SetNX(ctx, key, inFlightMarker, inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replay(ctx, w, store, key, requestHash, logg)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.statusCode()
			if status >= http.StatusInternalServerError {
				// Release the key so the client can retry.
				logError(ctx, logg, "release idempotency key", store.Del(ctx, key))
				return
			}
			payload, err := json.Marshal(idempotencyRecord{
				Status:      status,
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				ContentType: rec.Header().Get("Content-Type"),
				RequestHash: requestHash,
			})
			if err != nil {
				logError(ctx, logg, "marshal idempotency record", err)
				logError(ctx, logg, "release idempotency key", store.Del(ctx, key))
				return
			}
			logError(ctx, logg, "persist idempotency record", store.Set(ctx, key, string(payload), ttl))
		})
	}
}

func replay(ctx context.Context, w http.ResponseWriter, store IdempotencyStore, key, requestHash string, logg *logger.Logger) {
	stored, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, pkgredis.Nil), err == nil && stored == inFlightMarker:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "a request with this Idempotency-Key is still in progress"))
		return
	case err != nil:
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency body"))
		return
	}
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(body)
}

// requestScope keeps keys from colliding across users and routes.
func requestScope(r *http.Request) string {
	return strings.Join([]string{
		strconv.FormatInt(UserIDFromContext(r.Context()), 10),
		r.Method,
		r.URL.Path,
	}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// routePattern needs the middleware mounted with r.With so chi has resolved
// the full pattern by the time it runs.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(rules []IdempotencyRule, method, pattern string) (time.Duration, bool) {
	for _, rule := range rules {
		if rule.Method == method && rule.Pattern == pattern {
			return rule.TTL, true
		}
	}
	return 0, false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
