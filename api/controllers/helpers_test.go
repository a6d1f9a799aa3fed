package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/printshop-backend/api/middleware"
)

func authedRequest(method, target, body string, userID int64) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID > 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return payload
}
