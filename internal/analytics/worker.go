package analytics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/registry"
)

// ConsumerName scopes idempotency keys for this worker.
const ConsumerName = "analytics"

// Envelope is a published order event with its routing attributes.
type Envelope struct {
	EventID       string
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   int64
	OccurredAt    time.Time
	Payload       []byte
}

// Handler processes decoded envelopes.
type Handler interface {
	Handle(ctx context.Context, envelope Envelope) error
}

// HandlerFunc adapts functions to the Handler interface.
type HandlerFunc func(ctx context.Context, envelope Envelope) error

// Handle calls the underlying function.
func (fn HandlerFunc) Handle(ctx context.Context, envelope Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Release(ctx context.Context, consumer, eventID string) error
}

type workerCounter interface {
	IncProcessed(worker string)
	IncFailed(worker string)
	IncDeadLettered(worker string)
}

// Worker consumes order events from Pub/Sub while honoring Redis idempotency.
type Worker struct {
	subscription *gcppubsub.Subscriber
	handler      Handler
	manager      idempotencyChecker
	metrics      workerCounter
	logg         *logger.Logger
}

// NewWorker creates the analytics worker. subscription may be nil in tests
// that only call process.
func NewWorker(subscription *gcppubsub.Subscriber, handler Handler, manager idempotencyChecker, metrics workerCounter, logg *logger.Logger) (*Worker, error) {
	if handler == nil {
		return nil, errors.New("analytics handler is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Worker{
		subscription: subscription,
		handler:      handler,
		manager:      manager,
		metrics:      metrics,
		logg:         logg,
	}, nil
}

// Run receives messages until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if w.subscription == nil {
		return errors.New("analytics subscription is required")
	}
	return w.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if w.process(innerCtx, msg) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process handles one message and reports whether it should be redelivered.
func (w *Worker) process(ctx context.Context, msg *gcppubsub.Message) bool {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := w.logg.WithFields(ctx, fields)

	envelope, err := buildEnvelope(msg)
	if err != nil {
		w.logg.Error(logCtx, "invalid order event message, dropping", err)
		w.deadLettered()
		return false
	}
	fields["event_id"] = envelope.EventID
	fields["event_type"] = envelope.EventType
	fields["order_id"] = envelope.AggregateID
	logCtx = w.logg.WithFields(ctx, fields)

	already, err := w.manager.CheckAndMarkProcessed(logCtx, ConsumerName, envelope.EventID)
	if err != nil {
		w.logg.Error(logCtx, "idempotency check failed", err)
		w.failed()
		return true
	}
	if already {
		w.logg.Info(logCtx, "event already processed")
		return false
	}

	if err := w.handler.Handle(logCtx, *envelope); err != nil {
		var nonRetry registry.NonRetryableError
		if errors.As(err, &nonRetry) {
			w.logg.Error(logCtx, "order event cannot be ingested, dropping", err)
			w.deadLettered()
			return false
		}
		w.logg.Error(logCtx, "order event handler failed", err)
		if releaseErr := w.manager.Release(logCtx, ConsumerName, envelope.EventID); releaseErr != nil {
			w.logg.Error(logCtx, "release idempotency key", releaseErr)
		}
		w.failed()
		return true
	}
	w.processed()
	return false
}

func (w *Worker) processed() {
	if w.metrics != nil {
		w.metrics.IncProcessed(ConsumerName)
	}
}

func (w *Worker) failed() {
	if w.metrics != nil {
		w.metrics.IncFailed(ConsumerName)
	}
}

func (w *Worker) deadLettered() {
	if w.metrics != nil {
		w.metrics.IncDeadLettered(ConsumerName)
	}
}

func buildEnvelope(msg *gcppubsub.Message) (*Envelope, error) {
	stored, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		return nil, err
	}

	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}
	aggregateType, err := enums.ParseOutboxAggregateType(strings.TrimSpace(msg.Attributes["aggregate_type"]))
	if err != nil {
		return nil, fmt.Errorf("aggregate_type: %w", err)
	}
	aggregateID, err := strconv.ParseInt(strings.TrimSpace(msg.Attributes["aggregate_id"]), 10, 64)
	if err != nil || aggregateID <= 0 {
		return nil, errors.New("aggregate_id missing or invalid")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if created := strings.TrimSpace(msg.Attributes["created_at"]); created != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, created); err == nil {
				occurredAt = parsed
			}
		}
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if eventID == "" {
		return nil, errors.New("event_id missing")
	}

	return &Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       msg.Data,
	}, nil
}
