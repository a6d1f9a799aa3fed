package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/printshop-backend/api/responses"
	pkgAuth "github.com/angelmondragon/printshop-backend/pkg/auth"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// UserChecker confirms a token's user still exists.
type UserChecker interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

var errMissingCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")

// bearerToken accepts "Bearer <token>" or a bare token.
func bearerToken(header string) string {
	token := strings.TrimSpace(header)
	scheme, rest, _ := strings.Cut(token, " ")
	if strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	return token
}

// Auth admits requests carrying a valid access token for an existing user
// and stores the user id on the request context.
func Auth(cfg config.JWTConfig, users UserChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID, err := authenticate(ctx, cfg, users, r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithUserID(ctx, userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, users UserChecker, header string) (int64, error) {
	token := bearerToken(header)
	if token == "" {
		return 0, errMissingCredentials
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if users == nil {
		return claims.UserID, nil
	}
	exists, err := users.Exists(ctx, claims.UserID)
	switch {
	case err != nil:
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate user")
	case !exists:
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
	}
	return claims.UserID, nil
}
