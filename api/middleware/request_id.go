package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const (
	requestIDHeader   = "X-Request-Id"
	maxRequestIDBytes = 128
)

// RequestID tags every request with an id for log correlation. A well-formed
// caller id is echoed; anything else is replaced with a fresh UUID.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if !validRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			if logg != nil {
				r = r.WithContext(logg.WithRequestID(r.Context(), reqID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDBytes {
		return false
	}
	for _, c := range id {
		if c < '!' || c > '~' {
			return false
		}
	}
	return true
}
