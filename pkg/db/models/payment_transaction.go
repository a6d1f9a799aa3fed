package models

import (
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// PaymentTransaction is an append-only ledger row written per processed payment event.
type PaymentTransaction struct {
	ID              int64                   `gorm:"column:transaction_id;primaryKey;autoIncrement"`
	PaymentProvider enums.PaymentProvider   `gorm:"column:payment_provider;not null"`
	PaymentID       string                  `gorm:"column:payment_id;not null"`
	PaymentMethod   enums.PaymentMethodKind `gorm:"column:payment_method;not null"`
	Brand           string                  `gorm:"column:brand;not null"`
	Last4           string                  `gorm:"column:last4;not null"`
	ExpMonth        int                     `gorm:"column:exp_month;not null"`
	ExpYear         int                     `gorm:"column:exp_year;not null"`
	TxnType         enums.TxnType           `gorm:"column:txn_type;not null"`
	AmountCents     int64                   `gorm:"column:amount;not null"`
	Currency        string                  `gorm:"column:currency;not null"`
	Status          string                  `gorm:"column:status;not null"`
	OrderID         int64                   `gorm:"column:order_id;not null"`
	ProviderEventID *string                 `gorm:"column:provider_event_id"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (PaymentTransaction) TableName() string { return "transactions" }
