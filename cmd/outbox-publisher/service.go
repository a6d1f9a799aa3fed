package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/registry"
	"github.com/angelmondragon/printshop-backend/pkg/poller"
)

const (
	workerName            = "outbox-publisher"
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type workerCounter interface {
	IncProcessed(worker string)
	IncFailed(worker string)
	IncDeadLettered(worker string)
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	PublisherFactory publisherFactory
	DLQRepository    dlqRepository
	Metrics          workerCounter
}

// Service moves committed order events from the outbox table to Pub/Sub.
type Service struct {
	logg             *logger.Logger
	db               dbClient
	repo             outboxRepository
	pubsub           pubSubClient
	registry         registryResolver
	dlq              dlqRepository
	metrics          workerCounter
	publisherFactory publisherFactory
	batchSize        int
	maxAttempts      int
	pollInterval     time.Duration
	now              func() time.Time
}

type publishOutcome int

const (
	outcomePublished publishOutcome = iota
	outcomeRetry
	outcomeDeadLettered
)

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) publisher {
			return newGCPPublisher(params.PubSub.Publisher(topic))
		}
	}

	outboxCfg := params.Config.Outbox
	batch := outboxCfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := outboxCfg.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := outboxCfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		logg:             params.Logger,
		db:               params.DB,
		repo:             params.Repository,
		pubsub:           params.PubSub,
		registry:         params.Registry,
		dlq:              params.DLQRepository,
		metrics:          params.Metrics,
		publisherFactory: factory,
		batchSize:        batch,
		maxAttempts:      maxAttempts,
		pollInterval:     time.Duration(pollMs) * time.Millisecond,
		now:              time.Now,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}
	return poller.Run(ctx, poller.Options{
		Name:       workerName,
		Interval:   s.pollInterval,
		MaxBackoff: maxBackoff,
		Logger:     s.logg,
	}, s.processBatch)
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{
		"database": s.db.Ping,
		"pubsub":   s.pubsub.Ping,
	} {
		if err := ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	return nil
}

// processBatch locks a batch of unpublished rows and settles each one in the
// same transaction. One failed event never blocks the rest of the batch.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	found := false
	var outcomes []publishOutcome
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		outcomes = outcomes[:0]
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		found = len(events) > 0
		for _, event := range events {
			outcome, err := s.settle(ctx, tx, event)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, outcome)
		}
		return nil
	})
	if err == nil {
		s.record(outcomes)
	}
	return found, err
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (publishOutcome, error) {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, nil)
	}

	fields := s.eventFields(event, resolved.Envelope, resolved.Descriptor.Topic)
	pubErr := s.publish(ctx, event, resolved)
	if pubErr == nil {
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return outcomePublished, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		return outcomePublished, nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(pubErr, &nonRetry) {
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, pubErr, fields)
	}

	nextAttempt := event.AttemptCount + 1
	fields["attempt_count"] = nextAttempt
	if nextAttempt >= s.maxAttempts {
		fields["terminal_reason"] = "max_attempts"
		terminalErr := fmt.Errorf("max publish attempts reached: %w", pubErr)
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts, terminalErr, fields)
	}

	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", pubErr.Error()), "outbox publish failed")
	if err := s.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return outcomeRetry, fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return outcomeRetry, nil
}

func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) error {
	if fields == nil {
		fields = s.eventFields(event, outbox.PayloadEnvelope{}, "")
	}
	fields["error_reason"] = reason
	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", cause.Error()), "outbox event will not be retried")

	entry := outbox.NewDLQEntry(event, reason, cause, s.now())
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publisherFactory(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	msg := &gcppubsub.Message{
		Data:       event.Payload,
		Attributes: messageAttributes(event, resolved.Envelope),
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

// messageAttributes are what the analytics worker reads to rebuild the
// envelope without decoding the body first.
func messageAttributes(event models.OutboxEvent, envelope outbox.PayloadEnvelope) map[string]string {
	return map[string]string{
		"event_id":       envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   strconv.FormatInt(event.AggregateID, 10),
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (s *Service) record(outcomes []publishOutcome) {
	if s.metrics == nil {
		return
	}
	for _, outcome := range outcomes {
		switch outcome {
		case outcomePublished:
			s.metrics.IncProcessed(workerName)
		case outcomeRetry:
			s.metrics.IncFailed(workerName)
		case outcomeDeadLettered:
			s.metrics.IncDeadLettered(workerName)
		}
	}
}

func (s *Service) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"batch_size":     s.batchSize,
		"attempt_count":  event.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if topic != "" {
		fields["topic"] = topic
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
