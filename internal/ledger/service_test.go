package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

func validInput() RecordChargeInput {
	return RecordChargeInput{
		Provider:        enums.PaymentProviderStripe,
		PaymentID:       "pi_123",
		Card:            Card{Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030},
		AmountCents:     2500,
		Currency:        "USD",
		Status:          "succeeded",
		OrderID:         42,
		ProviderEventID: "evt_1",
	}
}

func TestServiceRecordChargeWritesLedgerRow(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	ctx := context.Background()

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		txn, err := svc.RecordCharge(ctx, tx, validInput())
		require.NoError(t, err)
		require.NotZero(t, txn.ID)
		return nil
	})
	require.NoError(t, err)

	rows, err := svc.ListByOrder(ctx, 42)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, enums.TxnTypeCharge, rows[0].TxnType)
	require.Equal(t, enums.PaymentMethodCard, rows[0].PaymentMethod)
	require.Equal(t, "usd", rows[0].Currency)
	require.EqualValues(t, 2500, rows[0].AmountCents)
	require.Equal(t, "evt_1", *rows[0].ProviderEventID)
}

func TestServiceRecordChargeRejectsDuplicateEvent(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.RecordCharge(ctx, client.DB(), validInput())
	require.NoError(t, err)

	_, err = svc.RecordCharge(ctx, client.DB(), validInput())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestServiceRecordChargeValidatesCard(t *testing.T) {
	t.Parallel()

	svc, err := NewService(NewRepository(nil))
	require.NoError(t, err)

	input := validInput()
	input.Card = Card{}
	_, err = svc.RecordCharge(context.Background(), nil, input)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	require.Equal(t, map[string]any{"fields": []string{"card.brand", "card.last4", "card.exp_month", "card.exp_year"}},
		pkgerrors.As(err).Details())
}

func TestRepositoryByProviderEvent(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	missing, err := repo.ByProviderEvent(ctx, nil, enums.PaymentProviderStripe, "evt_1")
	require.NoError(t, err)
	require.Nil(t, missing)

	_, err = svc.RecordCharge(ctx, nil, validInput())
	require.NoError(t, err)

	found, err := repo.ByProviderEvent(ctx, nil, enums.PaymentProviderStripe, "evt_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "pi_123", found.PaymentID)
}
