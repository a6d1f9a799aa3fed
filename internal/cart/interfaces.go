package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListRows(ctx context.Context, userID int64) ([]ItemRow, error)
	FindByUserPhotoFormat(ctx context.Context, userID, photoID, formatID int64) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, cartItemID int64, quantity int) (int64, error)
	Delete(ctx context.Context, userID, cartItemID int64) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	PhotoOwnedBy(ctx context.Context, photoID, userID int64) (bool, error)
	FormatExists(ctx context.Context, formatID int64) (bool, error)
}
