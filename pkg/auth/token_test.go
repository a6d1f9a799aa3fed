package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/printshop-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "printshop",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: 42})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	require.EqualValues(t, 42, claims.UserID)
	require.Equal(t, cfg.Issuer, claims.Issuer)
	require.Equal(t, "42", claims.Subject)
	require.NotEmpty(t, claims.ID)
	require.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 7})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token+"x")
	require.Error(t, err)
}

func TestParseAccessTokenWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 7})
	require.NoError(t, err)

	other := cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: 7})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "expired"), "unexpected error: %v", err)
}

func TestParseAccessTokenRequiresUserID(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	require.ErrorIs(t, err, ErrMissingUser)
}

func TestParseAccessTokenRejectsSubjectMismatch(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "8",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	require.ErrorIs(t, err, ErrSubjectMismatch)
}

func TestParseAccessTokenToleratesSmallSkew(t *testing.T) {
	cfg := testJWTConfig()
	cfg.ExpirationMinutes = 1
	token, err := MintAccessToken(cfg, time.Now().Add(-70*time.Second), AccessTokenPayload{UserID: 7})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	require.EqualValues(t, 7, claims.UserID)
}

func TestParseAccessTokenRejectsOtherAlgorithms(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	require.Error(t, err)
}

func TestMintAccessTokenRejectsInvalidUser(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{UserID: 0})
	require.Error(t, err)
}
