package models

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// PaymentEvent is an inbound provider webhook stored before processing.
type PaymentEvent struct {
	ID              int64                    `gorm:"column:id;primaryKey;autoIncrement"`
	Provider        enums.PaymentProvider    `gorm:"column:provider;not null"`
	ProviderEventID string                   `gorm:"column:provider_event_id;not null;uniqueIndex:ux_payment_events_provider_event"`
	EventType       string                   `gorm:"column:event_type;not null"`
	Payload         json.RawMessage          `gorm:"column:payload;type:jsonb;not null"`
	Status          enums.PaymentEventStatus `gorm:"column:status;not null;default:'pending'"`
	AttemptCount    int                      `gorm:"column:attempt_count;not null;default:0"`
	LastError       *string                  `gorm:"column:last_error"`
	NextAttemptAt   time.Time                `gorm:"column:next_attempt_at;not null"`
	ProcessedAt     *time.Time               `gorm:"column:processed_at"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (PaymentEvent) TableName() string { return "payment_events" }
