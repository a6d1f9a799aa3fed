package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateShippingAddress(ctx context.Context, address *models.ShippingAddress) (*models.ShippingAddress, error) {
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items", "ShippingAddress").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrderItems inserts every line in one parameterized batch.
func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) SetPaymentIntent(ctx context.Context, orderID int64, intentID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ?", orderID).
		Update("payment_intent_id", intentID).Error
}

// UpdatePaymentOutcome applies the reconciled statuses and reports rows changed.
func (r *repository) UpdatePaymentOutcome(ctx context.Context, orderID int64, status enums.OrderStatus, paymentStatus enums.PaymentStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"status":         status,
			"payment_status": paymentStatus,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) FindByID(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("ShippingAddress").
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindForUser(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("ShippingAddress").
		Where("order_id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID, beforeID int64, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if beforeID > 0 {
		query = query.Where("order_id < ?", beforeID)
	}
	var orders []models.Order
	err := query.
		Order("order_id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
