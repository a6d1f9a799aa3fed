package models

import "github.com/shopspring/decimal"

// Format is a print format offered in the catalog. Price is authoritative.
type Format struct {
	ID          int64           `gorm:"column:format_id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
}

func (Format) TableName() string { return "formats" }
