package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
)

// ItemRow is a cart item joined with its photo and format.
type ItemRow struct {
	CartItemID        int64           `gorm:"column:cart_item_id"`
	Quantity          int             `gorm:"column:quantity"`
	PhotoID           int64           `gorm:"column:photo_id"`
	ImageURL          string          `gorm:"column:image_url"`
	PhotoDescription  *string         `gorm:"column:photo_desc"`
	FormatID          int64           `gorm:"column:format_id"`
	FormatName        string          `gorm:"column:format_name"`
	Price             decimal.Decimal `gorm:"column:price"`
	FormatDescription *string         `gorm:"column:format_desc"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) CartRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListRows returns the user's cart, newest first, with photo and format data.
func (r *repository) ListRows(ctx context.Context, userID int64) ([]ItemRow, error) {
	var rows []ItemRow
	err := r.db.WithContext(ctx).
		Table("cart_items AS ci").
		Select(`ci.cart_item_id, ci.quantity, ci.photo_id, p.image_url, p.description AS photo_desc,
			ci.format_id, f.name AS format_name, f.price, f.description AS format_desc`).
		Joins("JOIN photos p ON p.photo_id = ci.photo_id").
		Joins("JOIN formats f ON f.format_id = ci.format_id").
		Where("ci.user_id = ?", userID).
		Order("ci.cart_item_id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByUserPhotoFormat(ctx context.Context, userID, photoID, formatID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND photo_id = ? AND format_id = ?", userID, photoID, formatID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateQuantity sets the quantity of one of the user's items and reports rows changed.
func (r *repository) UpdateQuantity(ctx context.Context, userID, cartItemID int64, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_item_id = ? AND user_id = ?", cartItemID, userID).
		Update("quantity", quantity)
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, userID, cartItemID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_item_id = ? AND user_id = ?", cartItemID, userID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteByUser empties the user's cart.
func (r *repository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *repository) PhotoOwnedBy(ctx context.Context, photoID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Photo{}).
		Where("photo_id = ? AND user_id = ?", photoID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FormatExists(ctx context.Context, formatID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Format{}).
		Where("format_id = ?", formatID).
		Count(&count).Error
	return count > 0, err
}
