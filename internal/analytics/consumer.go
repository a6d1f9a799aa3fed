package analytics

import (
	"context"
	"fmt"
	"strings"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/registry"
)

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// Consumer writes order events to the BigQuery order_events table.
type Consumer struct {
	client tableInserter
	table  string
	logg   *logger.Logger
}

// NewConsumer builds a consumer that inserts into table.
func NewConsumer(client tableInserter, table string, logg *logger.Logger) (*Consumer, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("bigquery table name required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{client: client, table: strings.TrimSpace(table), logg: logg}, nil
}

// Handle decodes the typed payload and inserts one row.
func (c *Consumer) Handle(ctx context.Context, envelope Envelope) error {
	row, err := BuildRow(envelope)
	if err != nil {
		return err
	}
	if err := c.client.InsertRows(ctx, c.table, []any{row}); err != nil {
		return fmt.Errorf("insert order event row: %w", err)
	}
	c.logg.Info(ctx, "order event ingested")
	return nil
}

// BuildRow maps an order event envelope onto the order_events schema.
func BuildRow(envelope Envelope) (*OrderEventRow, error) {
	stored, payload, err := registry.Decode(envelope.EventType, envelope.Payload)
	if err != nil {
		return nil, err
	}

	row := &OrderEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt,
		OrderID:    envelope.AggregateID,
		Payload:    cbigquery.NullJSON{Valid: true, JSONVal: string(stored.Data)},
	}
	if stored.Actor != nil && stored.Actor.UserID > 0 {
		row.UserID = int64Ptr(stored.Actor.UserID)
	}

	switch p := payload.(type) {
	case *payloads.OrderCreatedEvent:
		if p.OrderID > 0 {
			row.OrderID = p.OrderID
		}
		row.UserID = int64Ptr(p.UserID)
		row.AmountMinor = int64Ptr(p.AmountMinor)
		row.Currency = stringPtr(p.Currency)
		row.ItemCount = int64Ptr(int64(p.ItemCount))
		row.PaymentIntentID = stringPtr(p.PaymentIntentID)
		row.OrderStatus = stringPtr(string(enums.OrderStatusPending))
		row.PaymentStatus = stringPtr(string(enums.PaymentStatusPending))
	case *payloads.OrderPaymentEvent:
		if p.OrderID > 0 {
			row.OrderID = p.OrderID
		}
		row.AmountMinor = int64Ptr(p.AmountMinor)
		row.Currency = stringPtr(p.Currency)
		row.PaymentIntentID = stringPtr(p.PaymentIntentID)
		row.OrderStatus = stringPtr(p.OrderStatus)
		row.PaymentStatus = stringPtr(p.PaymentStatus)
	default:
		return nil, registry.NewNonRetryableError(fmt.Errorf("unexpected payload %T for %s", payload, envelope.EventType))
	}
	return row, nil
}
