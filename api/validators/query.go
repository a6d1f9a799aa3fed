package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded to [min, max].
// A missing or blank parameter yields fallback.
func ParseQueryInt(r *http.Request, key string, fallback, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, invalidQuery(key, "query parameter must be an integer", nil)
	case value < min || value > max:
		return 0, invalidQuery(key, "query parameter out of range", map[string]any{"min": min, "max": max})
	}
	return value, nil
}

func invalidQuery(key, msg string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}
