package models

import "time"

// ShippingAddress is captured once per order and never edited.
type ShippingAddress struct {
	ID            int64     `gorm:"column:address_id;primaryKey;autoIncrement"`
	UserID        int64     `gorm:"column:user_id;not null"`
	RecipientName string    `gorm:"column:recipient_name;not null"`
	Address       string    `gorm:"column:address;not null"`
	City          string    `gorm:"column:city;not null"`
	Region        string    `gorm:"column:state_region;not null"`
	PostalCode    string    `gorm:"column:postal_code;not null"`
	Country       string    `gorm:"column:country;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ShippingAddress) TableName() string { return "shipping_addresses" }
