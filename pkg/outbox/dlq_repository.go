package outbox

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

const maxDLQErrorLen = 1024

// DLQRepository parks outbox rows the publisher gave up on.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// NewDLQEntry snapshots an outbox row and the failure that retired it.
func NewDLQEntry(event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, failedAt time.Time) models.OutboxDLQ {
	entry := models.OutboxDLQ{
		ID:            uuid.New(),
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		AttemptCount:  event.AttemptCount,
		FailedAt:      failedAt.UTC(),
	}
	if cause != nil {
		msg := truncateDLQError(cause.Error())
		entry.ErrorMessage = &msg
	}
	return entry
}

// InsertTx stores entry unless the event is already parked.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errTxRequired
	}
	var existing int64
	if err := tx.Model(&models.OutboxDLQ{}).Where("event_id = ?", entry.EventID).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ErrorMessage != nil {
		msg := truncateDLQError(*entry.ErrorMessage)
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

// Lookup returns the parked entry for an outbox event, or nil.
func (r *DLQRepository) Lookup(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var entry models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// truncateDLQError cuts at a rune boundary within maxDLQErrorLen bytes.
func truncateDLQError(message string) string {
	if len(message) <= maxDLQErrorLen {
		return message
	}
	cut := maxDLQErrorLen
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}
