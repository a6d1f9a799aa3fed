package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/printshop-backend/internal/checkout"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/types"
)

const maxAddressFieldLen = 255

// Checkout places an order from the submitted cart and returns the payment
// client secret.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, svc != nil, "checkout service unavailable", logg)
		if !ok {
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, types.CheckoutResponse{
			Success:      true,
			ClientSecret: result.ClientSecret,
			OrderID:      result.OrderID,
		})
	}
}

type checkoutRequest struct {
	ShippingAddress shippingAddressPayload `json:"shipping_address"`
	CartItems       []checkoutItemPayload  `json:"cart_items" validate:"required,min=1,dive"`
}

type shippingAddressPayload struct {
	FullName string `json:"full_name" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Zip      string `json:"zip" validate:"required"`
	Country  string `json:"country"`
}

type checkoutItemPayload struct {
	CartItemID *int64                `json:"cart_item_id"`
	Photo      checkoutPhotoPayload  `json:"photo"`
	Format     checkoutFormatPayload `json:"format"`
	Quantity   int                   `json:"quantity" validate:"required,min=1"`
}

type checkoutPhotoPayload struct {
	PhotoID     int64   `json:"photo_id" validate:"required,gt=0"`
	ImageURL    string  `json:"image_url"`
	Description *string `json:"description"`
}

type checkoutFormatPayload struct {
	FormatID    int64            `json:"format_id" validate:"required,gt=0"`
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
}

func (r checkoutRequest) toInput() checkoutsvc.Input {
	lines := make([]checkoutsvc.LineInput, len(r.CartItems))
	for i, item := range r.CartItems {
		lines[i] = checkoutsvc.LineInput{
			CartItemID:  item.CartItemID,
			PhotoID:     item.Photo.PhotoID,
			FormatID:    item.Format.FormatID,
			Quantity:    item.Quantity,
			ClientPrice: item.Format.Price,
		}
	}
	addr := r.ShippingAddress
	return checkoutsvc.Input{
		Address: checkoutsvc.AddressInput{
			FullName: validators.SanitizeString(addr.FullName, maxAddressFieldLen),
			Address:  validators.SanitizeString(addr.Address, maxAddressFieldLen),
			City:     validators.SanitizeString(addr.City, maxAddressFieldLen),
			State:    validators.SanitizeString(addr.State, maxAddressFieldLen),
			Zip:      validators.SanitizeString(addr.Zip, maxAddressFieldLen),
			Country:  validators.SanitizeString(addr.Country, maxAddressFieldLen),
		},
		Lines: lines,
	}
}
