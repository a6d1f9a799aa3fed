package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	pkgredis "github.com/angelmondragon/printshop-backend/pkg/redis"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", pkgredis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	str, _ := value.(string)
	f.data[key] = str
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	return req.WithContext(WithUserID(ctx, 7))
}

type countingHandler struct {
	calls  int
	status int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.calls++
	w.Header().Set("Content-Type", "application/json")
	status := h.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"call":%d}`, h.calls)
}

func TestRouteTTLSelection(t *testing.T) {
	rules := IdempotencyRoutes(7 * 24 * time.Hour)

	ttl, ok := routeTTL(rules, http.MethodPost, "/api/v1/checkout")
	require.True(t, ok)
	require.Equal(t, 7*24*time.Hour, ttl)

	ttl, ok = routeTTL(rules, http.MethodPost, "/api/v1/cart")
	require.True(t, ok)
	require.Equal(t, defaultIdempotencyTTL, ttl)

	_, ok = routeTTL(rules, http.MethodGet, "/api/v1/checkout")
	require.False(t, ok)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	next := &countingHandler{}
	handler := Idempotency(store, IdempotencyRoutes(time.Hour), nil)(next)

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{"a":1}`))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"call":1}`, rec.Body.String())
		if i == 1 {
			require.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
		}
	}
	require.Equal(t, 1, next.calls)
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := newFakeStore()
	next := &countingHandler{}
	handler := Idempotency(store, IdempotencyRoutes(time.Hour), nil)(next)

	req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{"a":1}`))
	req.Header.Set("Idempotency-Key", "key-busy")
	store.data[store.IdempotencyKey(requestScope(req), "key-busy")] = inFlightMarker

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"CONFLICT"`)
	require.Zero(t, next.calls)
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, IdempotencyRoutes(time.Hour), nil)(&countingHandler{})

	first := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{"a":1}`))
	first.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{"a":2}`))
	second.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, second)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_REUSED")
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	store := newFakeStore()
	next := &countingHandler{}
	handler := Idempotency(store, IdempotencyRoutes(time.Hour), nil)(next)

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Equal(t, 2, next.calls)
	require.Empty(t, store.data)
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	store := newFakeStore()
	next := &countingHandler{status: http.StatusInternalServerError}
	handler := Idempotency(store, IdempotencyRoutes(time.Hour), nil)(next)

	req := requestWithPattern(http.MethodPost, "/api/v1/checkout", "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-err")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Empty(t, store.data)
}
