package orders

import (
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// OrderSummary is one row of GET /api/v1/orders.
type OrderSummary struct {
	OrderID       int64               `json:"order_id"`
	TotalAmount   string              `json:"total_amount"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderPage is one page of GET /api/v1/orders. NextCursor is empty on the last page.
type OrderPage struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderItemDTO is a frozen order line.
type OrderItemDTO struct {
	OrderItemID int64  `json:"order_item_id"`
	PhotoID     int64  `json:"photo_id"`
	FormatID    int64  `json:"format_id"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// AddressDTO is the shipping address captured at checkout.
type AddressDTO struct {
	RecipientName string `json:"full_name"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Region        string `json:"state"`
	PostalCode    string `json:"zip"`
	Country       string `json:"country"`
}

// OrderDetail is the response of GET /api/v1/orders/{orderId}.
type OrderDetail struct {
	OrderSummary
	UpdatedAt       time.Time      `json:"updated_at"`
	ShippingAddress *AddressDTO    `json:"shipping_address,omitempty"`
	Items           []OrderItemDTO `json:"items"`
}

func toSummary(o models.Order) OrderSummary {
	return OrderSummary{
		OrderID:       o.ID,
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		CreatedAt:     o.CreatedAt,
	}
}

func toDetail(o models.Order) OrderDetail {
	detail := OrderDetail{
		OrderSummary: toSummary(o),
		UpdatedAt:    o.UpdatedAt,
		Items:        make([]OrderItemDTO, 0, len(o.Items)),
	}
	if a := o.ShippingAddress; a != nil {
		detail.ShippingAddress = &AddressDTO{
			RecipientName: a.RecipientName,
			Address:       a.Address,
			City:          a.City,
			Region:        a.Region,
			PostalCode:    a.PostalCode,
			Country:       a.Country,
		}
	}
	for _, item := range o.Items {
		detail.Items = append(detail.Items, OrderItemDTO{
			OrderItemID: item.ID,
			PhotoID:     item.PhotoID,
			FormatID:    item.FormatID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			LineTotal:   item.LineTotal().StringFixed(2),
		})
	}
	return detail
}
