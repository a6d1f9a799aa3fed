package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

// ParseIDParam reads a positive integer URL parameter.
func ParseIDParam(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid path parameter").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}
