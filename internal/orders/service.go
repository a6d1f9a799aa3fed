package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/printshop-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/pagination"
)

// Service exposes read access to a user's own orders.
type Service interface {
	List(ctx context.Context, userID int64, params pagination.Params) (*OrderPage, error)
	Get(ctx context.Context, userID, orderID int64) (*OrderDetail, error)
}

type service struct {
	repo Repository
}

// NewService builds the orders read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// List pages through the caller's orders newest first.
func (s *service) List(ctx context.Context, userID int64, params pagination.Params) (*OrderPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var beforeID int64
	if cursor != nil {
		beforeID = cursor.ID
	}

	rows, err := s.repo.ListByUser(ctx, userID, beforeID, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	rows, more := pagination.Trim(rows, params.Limit)

	page := &OrderPage{Orders: make([]OrderSummary, 0, len(rows))}
	for _, o := range rows {
		page.Orders = append(page.Orders, toSummary(o))
	}
	if more {
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{ID: rows[len(rows)-1].ID})
	}
	return page, nil
}

// Get returns the order only when userID owns it; other users see NOT_FOUND.
func (s *service) Get(ctx context.Context, userID, orderID int64) (*OrderDetail, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	order, err := s.repo.FindForUser(ctx, userID, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	detail := toDetail(*order)
	return &detail, nil
}
