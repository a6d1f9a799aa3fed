package controllers

import (
	"net/http"

	"github.com/angelmondragon/printshop-backend/api/middleware"
	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/api/validators"
	cartsvc "github.com/angelmondragon/printshop-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// CartList returns the caller's cart with photo and format joined.
func CartList(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc != nil, "cart service unavailable", logg)
		if !ok {
			return
		}
		items, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// CartAdd adds prints to the cart, merging with an existing photo+format line.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc != nil, "cart service unavailable", logg)
		if !ok {
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Add(r.Context(), userID, cartsvc.AddItemInput{
			PhotoID:  payload.PhotoID,
			FormatID: payload.FormatID,
			Quantity: payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Merged {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// CartUpdate sets the quantity of one cart line.
func CartUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc != nil, "cart service unavailable", logg)
		if !ok {
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetQuantity(r.Context(), userID, payload.CartItemID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartsvc.AddItemResult{CartItemID: payload.CartItemID, Quantity: payload.Quantity})
	}
}

// CartRemove deletes one cart line.
func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc != nil, "cart service unavailable", logg)
		if !ok {
			return
		}

		var payload removeCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), userID, payload.CartItemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteEmpty(w, http.StatusNoContent)
	}
}

type addCartItemRequest struct {
	PhotoID  int64 `json:"photo_id" validate:"required,gt=0"`
	FormatID int64 `json:"format_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,min=1"`
}

type updateCartItemRequest struct {
	CartItemID int64 `json:"cart_item_id" validate:"required,gt=0"`
	Quantity   int   `json:"quantity" validate:"required,min=1"`
}

type removeCartItemRequest struct {
	CartItemID int64 `json:"cart_item_id" validate:"required,gt=0"`
}

func requireUser(w http.ResponseWriter, r *http.Request, available bool, unavailable string, logg *logger.Logger) (int64, bool) {
	if !available {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, unavailable))
		return 0, false
	}
	userID := middleware.UserIDFromContext(r.Context())
	if userID <= 0 {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return 0, false
	}
	return userID, true
}
