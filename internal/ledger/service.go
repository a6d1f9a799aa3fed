package ledger

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

const uniqueProviderEvent = "ux_transactions_provider_event"

// Service appends ledger rows. Rows are never updated or deleted.
type Service interface {
	RecordCharge(ctx context.Context, tx *gorm.DB, input RecordChargeInput) (*models.PaymentTransaction, error)
	ListByOrder(ctx context.Context, orderID int64) ([]models.PaymentTransaction, error)
}

// Card is the instrument summary a provider reports for a charge.
type Card struct {
	Brand    string
	Last4    string
	ExpMonth int
	ExpYear  int
}

// RecordChargeInput captures the immutable data of one processed payment event.
type RecordChargeInput struct {
	Provider        enums.PaymentProvider
	PaymentID       string
	Card            Card
	AmountCents     int64
	Currency        string
	Status          string
	OrderID         int64
	ProviderEventID string
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordCharge(ctx context.Context, tx *gorm.DB, input RecordChargeInput) (*models.PaymentTransaction, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	txn := &models.PaymentTransaction{
		PaymentProvider: input.Provider,
		PaymentID:       input.PaymentID,
		PaymentMethod:   enums.PaymentMethodCard,
		Brand:           input.Card.Brand,
		Last4:           input.Card.Last4,
		ExpMonth:        input.Card.ExpMonth,
		ExpYear:         input.Card.ExpYear,
		TxnType:         enums.TxnTypeCharge,
		AmountCents:     input.AmountCents,
		Currency:        strings.ToLower(input.Currency),
		Status:          input.Status,
		OrderID:         input.OrderID,
	}
	if input.ProviderEventID != "" {
		eventID := input.ProviderEventID
		txn.ProviderEventID = &eventID
	}

	// Checked before insert: a failed insert aborts the enclosing postgres
	// transaction. The unique index still catches concurrent writers.
	if input.ProviderEventID != "" {
		existing, err := s.repo.ByProviderEvent(ctx, tx, input.Provider, input.ProviderEventID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, errAlreadyRecorded(nil)
		}
	}

	if err := s.repo.Insert(ctx, tx, txn); err != nil {
		if db.IsUniqueViolation(err, uniqueProviderEvent) {
			return nil, errAlreadyRecorded(err)
		}
		return nil, err
	}
	return txn, nil
}

func errAlreadyRecorded(cause error) error {
	if cause == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "ledger row already recorded for event")
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, cause, "ledger row already recorded for event")
}

func (s *service) ListByOrder(ctx context.Context, orderID int64) ([]models.PaymentTransaction, error) {
	return s.repo.ByOrder(ctx, orderID)
}

func (in RecordChargeInput) validate() error {
	var problems []string
	if in.Provider == "" {
		problems = append(problems, "provider")
	}
	if in.PaymentID == "" {
		problems = append(problems, "payment_id")
	}
	if in.OrderID <= 0 {
		problems = append(problems, "order_id")
	}
	if in.AmountCents < 0 {
		problems = append(problems, "amount")
	}
	if in.Currency == "" {
		problems = append(problems, "currency")
	}
	if in.Card.Brand == "" {
		problems = append(problems, "card.brand")
	}
	if len(in.Card.Last4) != 4 {
		problems = append(problems, "card.last4")
	}
	if in.Card.ExpMonth < 1 || in.Card.ExpMonth > 12 {
		problems = append(problems, "card.exp_month")
	}
	if in.Card.ExpYear <= 0 {
		problems = append(problems, "card.exp_year")
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid ledger charge").
			WithDetails(map[string]any{"fields": problems})
	}
	return nil
}
