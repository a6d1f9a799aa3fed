package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/printshop-backend/pkg/config"
)

// clockSkew tolerates small drift between the API and whoever minted the token.
const clockSkew = 30 * time.Second

var (
	signingMethod = jwt.SigningMethodHS256

	ErrMissingUser     = errors.New("token missing user_id")
	ErrSubjectMismatch = errors.New("token subject does not match user_id")
)

func checkConfig(cfg config.JWTConfig, minting bool) error {
	switch {
	case cfg.Secret == "":
		return errors.New("jwt secret is required")
	case minting && cfg.Issuer == "":
		return errors.New("jwt issuer is required")
	case minting && cfg.ExpirationMinutes <= 0:
		return errors.New("jwt expiration minutes must be positive")
	}
	return nil
}

// MintAccessToken signs an HS256 access token for payload.UserID that
// expires cfg.ExpirationMinutes after now.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkConfig(cfg, true); err != nil {
		return "", err
	}
	if payload.UserID <= 0 {
		return "", fmt.Errorf("invalid user id %d", payload.UserID)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute

	claims := AccessTokenClaims{
		UserID: payload.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   strconv.FormatInt(payload.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry and returns the
// claims. A subject, when present, must agree with user_id.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if err := checkConfig(cfg, false); err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	claims := &AccessTokenClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}

	if claims.UserID <= 0 {
		return nil, ErrMissingUser
	}
	if claims.Subject != "" && claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return nil, ErrSubjectMismatch
	}
	return claims, nil
}
