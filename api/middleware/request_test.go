package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "bad id\n")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.NotEqual(t, "bad id\n", rec.Header().Get("X-Request-Id"))
	require.Len(t, rec.Header().Get("X-Request-Id"), 36)
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
}

func TestLoggingRecordsStatusAndSize(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "api-test", Output: buf})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	out := buf.String()
	require.Contains(t, out, `"status":503`)
	require.Contains(t, out, `"bytes":4`)
	require.Contains(t, out, `"level":"warn"`)
	require.Contains(t, out, "request failed")
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", bearerToken("Bearer abc"))
	require.Equal(t, "abc", bearerToken("bearer   abc "))
	require.Equal(t, "abc", bearerToken("abc"))
	require.Empty(t, bearerToken("Bearer "))
}

func TestAuthenticatedUser(t *testing.T) {
	_, ok := AuthenticatedUser(context.Background())
	require.False(t, ok)

	id, ok := AuthenticatedUser(WithUserID(context.Background(), 9))
	require.True(t, ok)
	require.EqualValues(t, 9, id)
}
