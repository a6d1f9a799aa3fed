package models

import "time"

// CartItem is one photo printed in one format, pending checkout.
type CartItem struct {
	ID        int64     `gorm:"column:cart_item_id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null"`
	PhotoID   int64     `gorm:"column:photo_id;not null"`
	FormatID  int64     `gorm:"column:format_id;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string { return "cart_items" }
