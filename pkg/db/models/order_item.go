package models

import "github.com/shopspring/decimal"

// OrderItem freezes the catalog price at the moment the order was placed.
type OrderItem struct {
	ID        int64           `gorm:"column:order_item_id;primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"column:order_id;not null"`
	PhotoID   int64           `gorm:"column:photo_id;not null"`
	FormatID  int64           `gorm:"column:format_id;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// LineTotal returns quantity × unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
