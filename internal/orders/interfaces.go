package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateShippingAddress(ctx context.Context, address *models.ShippingAddress) (*models.ShippingAddress, error)
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	SetPaymentIntent(ctx context.Context, orderID int64, intentID string) error
	UpdatePaymentOutcome(ctx context.Context, orderID int64, status enums.OrderStatus, paymentStatus enums.PaymentStatus) (int64, error)
	FindByID(ctx context.Context, orderID int64) (*models.Order, error)
	FindForUser(ctx context.Context, userID, orderID int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID, beforeID int64, limit int) ([]models.Order, error)
}
