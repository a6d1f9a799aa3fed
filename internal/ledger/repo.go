package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// Repository reads and appends rows of the transactions table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// conn prefers the caller's transaction over the pooled handle.
func (r *Repository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, txn *models.PaymentTransaction) error {
	return r.conn(ctx, tx).Create(txn).Error
}

// ByProviderEvent returns the row written for a provider event, or nil.
func (r *Repository) ByProviderEvent(ctx context.Context, tx *gorm.DB, provider enums.PaymentProvider, eventID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.conn(ctx, tx).
		Where("payment_provider = ? AND provider_event_id = ?", provider, eventID).
		Take(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ByOrder lists an order's rows oldest first.
func (r *Repository) ByOrder(ctx context.Context, orderID int64) ([]models.PaymentTransaction, error) {
	var rows []models.PaymentTransaction
	err := r.conn(ctx, nil).
		Where("order_id = ?", orderID).
		Order("transaction_id").
		Find(&rows).Error
	return rows, err
}
