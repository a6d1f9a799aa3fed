package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/angelmondragon/printshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// Recoverer turns a handler panic into a 500 INTERNAL_ERROR envelope.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic": fmt.Sprint(rec),
						"stack": string(debug.Stack()),
						"route": r.Method + " " + r.URL.Path,
					})
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
