package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return tx.Create(&event).Error
}

// ExistsTx reports whether an event of the given type was already queued for the aggregate.
func (r *Repository) ExistsTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID int64) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	var count int64
	err := tx.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_type = ? AND aggregate_id = ?", eventType, aggregateType, aggregateID).
		Count(&count).Error
	return count > 0, err
}

// FetchUnpublishedForPublish locks a batch of unpublished rows that still have attempts left.
func (r *Repository) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var rows []models.OutboxEvent
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("published_at IS NULL AND attempt_count < ?", maxAttempts).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now().UTC(),
			"last_error":   nil,
		}).Error
}

func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkTerminalTx pushes the attempt count to the ceiling so the row is never fetched again.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	updates := map[string]any{"attempt_count": terminalAttempts}
	if err != nil {
		updates["last_error"] = err.Error()
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
}
