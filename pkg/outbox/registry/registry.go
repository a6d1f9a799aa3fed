package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, fmt.Errorf("orders topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	for _, desc := range descriptors(cfg.OrdersTopic) {
		reg.register(desc)
	}
	return reg, nil
}

func descriptors(ordersTopic string) []EventDescriptor {
	return []EventDescriptor{
		{
			EventType:      enums.EventOrderCreated,
			AggregateType:  enums.AggregateOrder,
			Topic:          ordersTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderCreatedEvent{} },
		},
		{
			EventType:      enums.EventOrderPaid,
			AggregateType:  enums.AggregateOrder,
			Topic:          ordersTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderPaymentEvent{} },
		},
		{
			EventType:      enums.EventOrderPaymentFailed,
			AggregateType:  enums.AggregateOrder,
			Topic:          ordersTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderPaymentEvent{} },
		},
	}
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID <= 0 {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	envelope, payload, err := decode(desc, event.Payload)
	if err != nil {
		return nil, err
	}
	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// Decode parses a published message body for the given event type. Consumers
// use it without a topic configuration.
func Decode(eventType enums.OutboxEventType, raw []byte) (outbox.PayloadEnvelope, interface{}, error) {
	for _, desc := range descriptors("") {
		if desc.EventType == eventType {
			return decode(desc, raw)
		}
	}
	return outbox.PayloadEnvelope{}, nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", eventType))
}

func decode(desc EventDescriptor, raw []byte) (outbox.PayloadEnvelope, interface{}, error) {
	envelope, err := outbox.DecodeEnvelope(raw)
	if err != nil {
		return envelope, nil, NewNonRetryableError(err)
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return envelope, nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", desc.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return envelope, nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", desc.EventType, err))
	}
	return envelope, payload, nil
}
