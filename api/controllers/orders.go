package controllers

import (
	"net/http"

	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/api/validators"
	ordersvc "github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/pagination"
)

// OrdersList returns one page of the caller's orders, newest first.
func OrdersList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc != nil, "orders service unavailable", logg)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// OrderDetail returns one order owned by the caller.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc != nil, "orders service unavailable", logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
