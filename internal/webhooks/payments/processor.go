package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/internal/ledger"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/payloads"
)

// Result labels for processed events.
const (
	ResultProcessed  = "processed"
	ResultIgnored    = "ignored"
	ResultDeadLetter = "dead_letter"
	ResultFailed     = "failed"
	ResultDuplicate  = "duplicate"
	ResultSkipped    = "skipped"
)

const (
	defaultMaxAttempts = 8
	baseBackoff        = 2 * time.Second
	maxBackoff         = 10 * time.Minute
)

// ErrOrderNotReady means the event arrived before the checkout that created
// the order committed. It is retried.
var ErrOrderNotReady = errors.New("order not found for payment event")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventVerifier interface {
	VerifyEvent(payload []byte, signature string) (stripe.Event, error)
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type resultCounter interface {
	Inc(eventType, result string)
}

// ProcessorParams wires the payment event processor.
type ProcessorParams struct {
	TransactionRunner txRunner
	Inbox             *Inbox
	Verifier          eventVerifier
	OrdersRepo        orders.Repository
	Ledger            ledger.Service
	Outbox            outboxEmitter
	Metrics           resultCounter
	Logger            *logger.Logger
	MaxAttempts       int
	Now               func() time.Time
}

// Processor verifies, stores and reconciles payment provider events.
type Processor struct {
	tx          txRunner
	inbox       *Inbox
	verifier    eventVerifier
	orders      orders.Repository
	ledger      ledger.Service
	outbox      outboxEmitter
	metrics     resultCounter
	logg        *logger.Logger
	maxAttempts int
	now         func() time.Time
}

// IngestResult identifies the stored inbox row for a delivery.
type IngestResult struct {
	InboxID   int64
	EventID   string
	EventType string
	Duplicate bool
}

// NewProcessor validates params and builds a Processor.
func NewProcessor(params ProcessorParams) (*Processor, error) {
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Inbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inbox required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox required")
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Processor{
		tx:          params.TransactionRunner,
		inbox:       params.Inbox,
		verifier:    params.Verifier,
		orders:      params.OrdersRepo,
		ledger:      params.Ledger,
		outbox:      params.Outbox,
		metrics:     params.Metrics,
		logg:        params.Logger,
		maxAttempts: maxAttempts,
		now:         now,
	}, nil
}

// Ingest verifies the signature and stores the event in the inbox. A
// redelivered event reports Duplicate and is not stored again.
func (p *Processor) Ingest(ctx context.Context, payload []byte, signature string) (*IngestResult, error) {
	if p.verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event verifier unavailable")
	}
	if signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing")
	}
	event, err := p.verifier.VerifyEvent(payload, signature)
	if err != nil {
		p.count("", ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload or signature")
	}
	if event.ID == "" || event.Type == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id and type required")
	}

	now := p.now()
	row := &models.PaymentEvent{
		Provider:        enums.PaymentProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		Payload:         append([]byte(nil), payload...),
		Status:          enums.PaymentEventStatusPending,
		NextAttemptAt:   now,
	}
	inserted, err := p.inbox.Insert(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment event")
	}
	result := &IngestResult{EventID: event.ID, EventType: string(event.Type), Duplicate: !inserted}
	if inserted {
		result.InboxID = row.ID
		return result, nil
	}

	p.count(string(event.Type), ResultDuplicate)
	existing, err := p.inbox.FindByProviderEventID(ctx, enums.PaymentProviderStripe, event.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stored payment event")
	}
	result.InboxID = existing.ID
	return result, nil
}

// Process reconciles one inbox row and returns the result label. Errors are
// returned only for attempts that will be retried or were just exhausted.
func (p *Processor) Process(ctx context.Context, inboxID int64) (string, error) {
	var (
		claimed *models.PaymentEvent
		result  string
	)
	err := p.tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := p.now()
		event, err := p.inbox.ClaimTx(ctx, tx, inboxID, now)
		if err != nil {
			return err
		}
		if event == nil {
			result = ResultSkipped
			return nil
		}
		claimed = event
		if p.logg != nil {
			ctx = p.logg.WithEventID(ctx, event.ProviderEventID)
		}

		if !Recognized(event.EventType) {
			result = ResultIgnored
			if p.logg != nil {
				p.logg.Info(p.logg.WithField(ctx, "event_type", event.EventType), "ignoring unhandled payment event type")
			}
			return p.inbox.FinishTx(ctx, tx, event.ID, enums.PaymentEventStatusIgnored, "", now)
		}

		var envelope stripe.Event
		if err := json.Unmarshal(event.Payload, &envelope); err != nil {
			return p.deadLetter(ctx, tx, event, pkgerrors.Wrap(pkgerrors.CodeMalformedEvent, err, "decode event envelope"), now, &result)
		}
		outcome, err := DecodeIntentEvent(envelope)
		if err != nil {
			return p.deadLetter(ctx, tx, event, err, now, &result)
		}
		if err := p.apply(ctx, tx, outcome); err != nil {
			return err
		}
		result = ResultProcessed
		return p.inbox.FinishTx(ctx, tx, event.ID, enums.PaymentEventStatusProcessed, "", now)
	})
	if err == nil {
		if claimed != nil {
			p.count(claimed.EventType, result)
		}
		return result, nil
	}
	if claimed == nil {
		return ResultFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim payment event")
	}
	return p.recordFailure(ctx, claimed, err)
}

// Drain processes up to limit due inbox rows and returns how many were
// attempted. Failures of individual rows are combined into the error.
func (p *Processor) Drain(ctx context.Context, limit int) (int, error) {
	ids, err := p.inbox.ListClaimable(ctx, p.now(), limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due payment events")
	}
	var combined error
	for _, id := range ids {
		if ctx.Err() != nil {
			return 0, multierr.Append(combined, ctx.Err())
		}
		if _, err := p.Process(ctx, id); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("payment event %d: %w", id, err))
		}
	}
	return len(ids), combined
}

// apply writes the ledger row, the order statuses and the outbox event in the
// caller's transaction.
func (p *Processor) apply(ctx context.Context, tx *gorm.DB, outcome *IntentOutcome) error {
	if _, err := p.ledger.RecordCharge(ctx, tx, ledger.RecordChargeInput{
		Provider:  enums.PaymentProviderStripe,
		PaymentID: outcome.IntentID,
		Card: ledger.Card{
			Brand:    outcome.Card.Brand,
			Last4:    outcome.Card.Last4,
			ExpMonth: outcome.Card.ExpMonth,
			ExpYear:  outcome.Card.ExpYear,
		},
		AmountCents:     outcome.AmountMinor,
		Currency:        outcome.Currency,
		Status:          outcome.IntentStatus,
		OrderID:         outcome.OrderID,
		ProviderEventID: outcome.EventID,
	}); err != nil {
		return err
	}

	paymentStatus := enums.PaymentStatusForIntent(outcome.Succeeded())
	eventType := enums.EventOrderPaymentFailed
	if paymentStatus == enums.PaymentStatusPaid {
		eventType = enums.EventOrderPaid
	}

	rows, err := p.orders.WithTx(tx).UpdatePaymentOutcome(ctx, outcome.OrderID, paymentStatus.OrderStatus(), paymentStatus)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("order %d: %w", outcome.OrderID, ErrOrderNotReady)
	}

	return p.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   outcome.OrderID,
		Actor:         &outbox.ActorRef{Source: "payments-webhook"},
		Data: payloads.OrderPaymentEvent{
			OrderID:         outcome.OrderID,
			PaymentIntentID: outcome.IntentID,
			IntentStatus:    outcome.IntentStatus,
			AmountMinor:     outcome.AmountMinor,
			Currency:        outcome.Currency,
			OrderStatus:     string(paymentStatus.OrderStatus()),
			PaymentStatus:   string(paymentStatus),
			ProviderEventID: outcome.EventID,
		},
	})
}

func (p *Processor) deadLetter(ctx context.Context, tx *gorm.DB, event *models.PaymentEvent, cause error, now time.Time, result *string) error {
	*result = ResultDeadLetter
	if p.logg != nil {
		p.logg.Error(ctx, "payment event is malformed, dead-lettering", cause)
	}
	return p.inbox.FinishTx(ctx, tx, event.ID, enums.PaymentEventStatusDeadLetter, cause.Error(), now)
}

// recordFailure stores the failed attempt. Non-retryable errors and exhausted
// attempts dead-letter the row.
func (p *Processor) recordFailure(ctx context.Context, event *models.PaymentEvent, cause error) (string, error) {
	status := enums.PaymentEventStatusFailed
	result := ResultFailed
	retryable := errors.Is(cause, ErrOrderNotReady) || pkgerrors.IsRetryable(cause)
	if !retryable || event.AttemptCount >= p.maxAttempts {
		status = enums.PaymentEventStatusDeadLetter
		result = ResultDeadLetter
	}

	reason := cause.Error()
	if typed := pkgerrors.As(cause); typed != nil && typed.Unwrap() != nil {
		reason = fmt.Sprintf("%s: %v", typed.Error(), typed.Unwrap())
	}
	next := p.now().Add(Backoff(event.AttemptCount))
	if err := p.inbox.MarkFailed(ctx, event.ID, event.AttemptCount, status, reason, next); err != nil && p.logg != nil {
		p.logg.Error(ctx, "record payment event failure", err)
	}
	p.count(event.EventType, result)

	if p.logg != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"event_id": event.ProviderEventID,
			"attempts": event.AttemptCount,
			"status":   status,
		})
		p.logg.Error(logCtx, "payment event processing failed", cause)
	}
	return result, cause
}

func (p *Processor) count(eventType, result string) {
	if p.metrics != nil {
		p.metrics.Inc(eventType, result)
	}
}

// Backoff returns the delay before attempt+1, doubling from 2s up to 10m.
func Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return baseBackoff
	}
	delay := baseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
