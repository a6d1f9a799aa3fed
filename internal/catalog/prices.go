package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

// Prices is a read-only format_id → price snapshot taken at one point in time.
type Prices struct {
	byID map[int64]decimal.Decimal
}

// NewPrices indexes formats by id.
func NewPrices(formats []models.Format) Prices {
	byID := make(map[int64]decimal.Decimal, len(formats))
	for _, f := range formats {
		byID[f.ID] = f.Price
	}
	return Prices{byID: byID}
}

// Load reads the whole catalog through tx so prices are consistent with the
// rest of the caller's transaction.
func Load(ctx context.Context, tx *gorm.DB) (Prices, error) {
	formats, err := NewRepository(tx).List(ctx)
	if err != nil {
		return Prices{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load format catalog")
	}
	return NewPrices(formats), nil
}

// Lookup returns the catalog price for formatID.
func (p Prices) Lookup(formatID int64) (decimal.Decimal, bool) {
	price, ok := p.byID[formatID]
	return price, ok
}

// Len reports how many formats the snapshot holds.
func (p Prices) Len() int {
	return len(p.byID)
}
