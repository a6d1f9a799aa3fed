package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const eventAggregateConstraint = "ux_outbox_events_event_aggregate"

var errTxRequired = errors.New("transaction required")

// Service queues order events in the caller's transaction. The outbox
// publisher ships them to Pub/Sub after commit.
type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit writes the event inside tx so it commits or rolls back with the change it describes.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errTxRequired
	}
	if err := event.validate(); err != nil {
		return fmt.Errorf("emit outbox event: %w", err)
	}

	id := uuid.New()
	envelope, err := newEnvelope(id, event, s.now())
	if err != nil {
		return err
	}
	payload, err := envelope.marshal()
	if err != nil {
		return err
	}
	if err := s.repo.Insert(tx, models.OutboxEvent{
		ID:            id,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}); err != nil {
		return err
	}

	if s.logg != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event_id":       envelope.EventID,
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID,
		}), "outbox event queued")
	}
	return nil
}

// EmitIfNotExists is Emit guarded by the (event_type, aggregate) uniqueness.
// Replayed webhooks land here, so an existing row is success.
func (s *Service) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errTxRequired
	}
	exists, err := s.repo.ExistsTx(tx, event.EventType, event.AggregateType, event.AggregateID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = s.Emit(ctx, tx, event)
	if dbpkg.IsUniqueViolation(err, eventAggregateConstraint) {
		return nil
	}
	return err
}
