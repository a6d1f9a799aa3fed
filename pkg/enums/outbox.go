package enums

import (
	"fmt"
	"slices"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const AggregateOrder OutboxAggregateType = "order"

// OutboxEventType names an order domain event; the value is also the
// Pub/Sub event_type attribute.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order.created"
	EventOrderPaid          OutboxEventType = "order.paid"
	EventOrderPaymentFailed OutboxEventType = "order.payment_failed"
)

// OutboxDLQErrorReason says why the publisher stopped retrying an event.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var (
	aggregateTypes  = []OutboxAggregateType{AggregateOrder}
	outboxEvents    = []OutboxEventType{EventOrderCreated, EventOrderPaid, EventOrderPaymentFailed}
	dlqErrorReasons = []OutboxDLQErrorReason{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable}
)

func parseClosed[T ~string](raw, kind string, allowed []T) (T, error) {
	if v := T(raw); slices.Contains(allowed, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}

func (a OutboxAggregateType) IsValid() bool { return slices.Contains(aggregateTypes, a) }

func (e OutboxEventType) IsValid() bool { return slices.Contains(outboxEvents, e) }

func (r OutboxDLQErrorReason) IsValid() bool { return slices.Contains(dlqErrorReasons, r) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parseClosed(value, "aggregate type", aggregateTypes)
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parseClosed(value, "event type", outboxEvents)
}
