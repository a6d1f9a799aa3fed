package analytics

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderEventRow mirrors the order_events BigQuery schema.
type OrderEventRow struct {
	EventID         string             `bigquery:"event_id"`
	EventType       string             `bigquery:"event_type"`
	OccurredAt      time.Time          `bigquery:"occurred_at"`
	OrderID         int64              `bigquery:"order_id"`
	UserID          *int64             `bigquery:"user_id"`
	AmountMinor     *int64             `bigquery:"amount_minor"`
	Currency        *string            `bigquery:"currency"`
	ItemCount       *int64             `bigquery:"item_count"`
	PaymentIntentID *string            `bigquery:"payment_intent_id"`
	OrderStatus     *string            `bigquery:"order_status"`
	PaymentStatus   *string            `bigquery:"payment_status"`
	Payload         cbigquery.NullJSON `bigquery:"payload"`
}

func int64Ptr(v int64) *int64 {
	return &v
}

func stringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// InsertID dedupes redelivered events in the streaming buffer.
func (r *OrderEventRow) InsertID() string {
	return r.EventID
}
