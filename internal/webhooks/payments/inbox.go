package payments

import (
	"context"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

const (
	uniqueProviderEvent = "ux_payment_events_provider_event"
	maxLastErrorLen     = 1024
)

var claimableStatuses = []enums.PaymentEventStatus{
	enums.PaymentEventStatusPending,
	enums.PaymentEventStatusFailed,
}

// Inbox persists inbound provider events until they are reconciled.
type Inbox struct {
	db *gorm.DB
}

// NewInbox binds the inbox to the provided DB.
func NewInbox(db *gorm.DB) *Inbox {
	return &Inbox{db: db}
}

// Insert stores a new event. It returns false when the provider event id was
// already stored, in which case the existing row is left untouched.
func (i *Inbox) Insert(ctx context.Context, event *models.PaymentEvent) (bool, error) {
	if err := i.db.WithContext(ctx).Create(event).Error; err != nil {
		if db.IsUniqueViolation(err, uniqueProviderEvent) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FindByProviderEventID loads the stored copy of a provider event.
func (i *Inbox) FindByProviderEventID(ctx context.Context, provider enums.PaymentProvider, eventID string) (*models.PaymentEvent, error) {
	var event models.PaymentEvent
	err := i.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", provider, eventID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ClaimTx moves a pending or failed row to processing and bumps its attempt
// count. Only one caller can win the claim for a given row.
func (i *Inbox) ClaimTx(ctx context.Context, tx *gorm.DB, id int64, now time.Time) (*models.PaymentEvent, error) {
	res := tx.WithContext(ctx).
		Model(&models.PaymentEvent{}).
		Where("id = ? AND status IN ?", id, claimableStatuses).
		Updates(map[string]any{
			"status":        enums.PaymentEventStatusProcessing,
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"updated_at":    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, nil
	}
	var event models.PaymentEvent
	if err := tx.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FinishTx records a terminal status for a claimed row.
func (i *Inbox) FinishTx(ctx context.Context, tx *gorm.DB, id int64, status enums.PaymentEventStatus, reason string, now time.Time) error {
	updates := map[string]any{
		"status":       status,
		"processed_at": now,
		"updated_at":   now,
	}
	if reason != "" {
		updates["last_error"] = truncate(reason)
	}
	return tx.WithContext(ctx).
		Model(&models.PaymentEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkFailed records a failed attempt outside the rolled-back processing
// transaction. attempts is the count including the failed attempt.
func (i *Inbox) MarkFailed(ctx context.Context, id int64, attempts int, status enums.PaymentEventStatus, reason string, nextAttempt time.Time) error {
	return i.db.WithContext(ctx).
		Model(&models.PaymentEvent{}).
		Where("id = ? AND status IN ?", id, claimableStatuses).
		Updates(map[string]any{
			"status":          status,
			"attempt_count":   attempts,
			"last_error":      truncate(reason),
			"next_attempt_at": nextAttempt,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// ListClaimable returns ids of rows due for another attempt, oldest first.
func (i *Inbox) ListClaimable(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := i.db.WithContext(ctx).
		Model(&models.PaymentEvent{}).
		Where("status IN ? AND next_attempt_at <= ?", claimableStatuses, now).
		Order("next_attempt_at ASC").
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// truncate cuts at a rune boundary within maxLastErrorLen bytes.
func truncate(message string) string {
	if len(message) <= maxLastErrorLen {
		return message
	}
	cut := maxLastErrorLen
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}
