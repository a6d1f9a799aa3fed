package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/printshop-backend/pkg/config"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Printshop-Env") != "dev" {
		t.Fatalf("expected env header")
	}
}

func TestHealthReadyChecksDependencies(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, stubPinger{}, stubPinger{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, stubPinger{}, stubPinger{err: errors.New("dial tcp")}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if code := decodeError(t, resp)["code"]; code != "DEPENDENCY_ERROR" {
		t.Fatalf("unexpected code %v", code)
	}
}
