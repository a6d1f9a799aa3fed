package controllers

import (
	"net/http"

	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// FormatsList returns every print format ordered by price.
func FormatsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		formats, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, formats)
	}
}
