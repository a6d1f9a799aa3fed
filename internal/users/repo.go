package users

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
)

// Repository answers the one question the auth middleware asks: does the
// token's user still exist.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether a user row with id is present.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", id).
		Limit(1).
		Pluck("user_id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) == 1, nil
}
