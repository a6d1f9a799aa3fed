package cart

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations scoped to one user.
type Service interface {
	List(ctx context.Context, userID int64) ([]ItemView, error)
	Add(ctx context.Context, userID int64, input AddItemInput) (*AddItemResult, error)
	SetQuantity(ctx context.Context, userID, cartItemID int64, quantity int) error
	Remove(ctx context.Context, userID, cartItemID int64) error
}

type service struct {
	repo CartRepository
	tx   txRunner
}

// NewService builds a cart service backed by the provided repository.
func NewService(repo CartRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID int64) ([]ItemView, error) {
	rows, err := s.repo.ListRows(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	items := make([]ItemView, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItemView(row))
	}
	return items, nil
}

// Add inserts a new line or, when the user already has this photo in this
// format, increases the existing line's quantity.
func (s *service) Add(ctx context.Context, userID int64, input AddItemInput) (*AddItemResult, error) {
	if input.PhotoID <= 0 || input.FormatID <= 0 || input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid photo id, format id, or quantity")
	}

	var result *AddItemResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		owned, err := repo.PhotoOwnedBy(ctx, input.PhotoID, userID)
		if err != nil {
			return err
		}
		if !owned {
			return pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		exists, err := repo.FormatExists(ctx, input.FormatID)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown format").
				WithDetails(map[string]any{"format_id": input.FormatID})
		}

		existing, err := repo.FindByUserPhotoFormat(ctx, userID, input.PhotoID, input.FormatID)
		if err != nil {
			return err
		}
		if existing != nil {
			quantity := existing.Quantity + input.Quantity
			if _, err := repo.UpdateQuantity(ctx, userID, existing.ID, quantity); err != nil {
				return err
			}
			result = &AddItemResult{CartItemID: existing.ID, Quantity: quantity, Merged: true}
			return nil
		}

		created, err := repo.Create(ctx, &models.CartItem{
			UserID:   userID,
			PhotoID:  input.PhotoID,
			FormatID: input.FormatID,
			Quantity: input.Quantity,
		})
		if err != nil {
			return err
		}
		result = &AddItemResult{CartItemID: created.ID, Quantity: created.Quantity}
		return nil
	})
	if err != nil {
		return nil, wrapPersistence(err, "add cart item")
	}
	return result, nil
}

func (s *service) SetQuantity(ctx context.Context, userID, cartItemID int64, quantity int) error {
	if cartItemID <= 0 || quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid or missing cart_item_id or quantity")
	}
	rows, err := s.repo.UpdateQuantity(ctx, userID, cartItemID, quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, cartItemID int64) error {
	if cartItemID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid or missing cart_item_id")
	}
	rows, err := s.repo.Delete(ctx, userID, cartItemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func wrapPersistence(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
