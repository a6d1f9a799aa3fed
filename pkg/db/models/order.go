package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// Order is created pending by checkout; only payment reconciliation moves its statuses.
type Order struct {
	ID                int64               `gorm:"column:order_id;primaryKey;autoIncrement"`
	UserID            int64               `gorm:"column:user_id;not null"`
	ShippingAddressID int64               `gorm:"column:shipping_address_id;not null"`
	TotalAmount       decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status            enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentIntentID   *string             `gorm:"column:payment_intent_id"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Items           []OrderItem      `gorm:"foreignKey:OrderID;references:ID"`
	ShippingAddress *ShippingAddress `gorm:"foreignKey:ShippingAddressID;references:ID"`
}

func (Order) TableName() string { return "orders" }
