package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
)

// Repository reads the print format catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a catalog repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository that runs its queries inside tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// List returns every format, cheapest first.
func (r *Repository) List(ctx context.Context) ([]models.Format, error) {
	var formats []models.Format
	err := r.db.WithContext(ctx).
		Order("price ASC").
		Order("format_id ASC").
		Find(&formats).Error
	if err != nil {
		return nil, err
	}
	return formats, nil
}
