package checkout

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/internal/cart"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
)

type fakeIntents struct {
	created     []*stripe.PaymentIntentCreateParams
	canceled    []string
	createErr   error
	hadDeadline bool
}

func (f *fakeIntents) Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	_, f.hadDeadline = ctx.Deadline()
	f.created = append(f.created, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &stripe.PaymentIntent{
		ID:           "pi_test_1",
		ClientSecret: "pi_test_1_secret_abc",
		Amount:       *params.Amount,
		Currency:     stripe.Currency(*params.Currency),
	}, nil
}

func (f *fakeIntents) Cancel(_ context.Context, id string, _ *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
	f.canceled = append(f.canceled, id)
	return &stripe.PaymentIntent{ID: id}, nil
}

type failingOutbox struct{}

func (failingOutbox) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

type recordedOutcome struct {
	outcome string
	step    string
}

type fakeObserver struct {
	outcomes []recordedOutcome
}

func (f *fakeObserver) Observe(outcome, step string, _ time.Duration) {
	f.outcomes = append(f.outcomes, recordedOutcome{outcome: outcome, step: step})
}

type checkoutFixture struct {
	client   *db.Client
	intents  *fakeIntents
	observer *fakeObserver
	user     models.User
	photoA   models.Photo
	photoB   models.Photo
	large    models.Format
	small    models.Format
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	client := dbtest.Open(t)
	user := dbtest.SeedUser(t, client, "ada")
	f := &checkoutFixture{
		client:   client,
		intents:  &fakeIntents{},
		observer: &fakeObserver{},
		user:     user,
		photoA:   dbtest.SeedPhoto(t, client, user.ID),
		photoB:   dbtest.SeedPhoto(t, client, user.ID),
		large:    dbtest.SeedFormat(t, client, "8x10", "10.00"),
		small:    dbtest.SeedFormat(t, client, "4x6", "5.00"),
	}
	dbtest.SeedCartItem(t, client, user.ID, f.photoA.ID, f.large.ID, 2)
	dbtest.SeedCartItem(t, client, user.ID, f.photoB.ID, f.small.ID, 1)
	return f
}

func (f *checkoutFixture) service(t *testing.T, publisher outboxPublisher) Service {
	t.Helper()
	if publisher == nil {
		publisher = outbox.NewService(outbox.NewRepository(f.client.DB()), nil)
	}
	svc, err := NewService(ServiceParams{
		TransactionRunner: f.client,
		OrdersRepo:        orders.NewRepository(f.client.DB()),
		CartRepo:          cart.NewRepository(f.client.DB()),
		PaymentIntents:    f.intents,
		Outbox:            publisher,
		Metrics:           f.observer,
		Settings:          Settings{Currency: "usd", DefaultCountry: "USA", PaymentTimeout: time.Second},
	})
	require.NoError(t, err)
	return svc
}

func (f *checkoutFixture) input() Input {
	wrongPrice := decimal.RequireFromString("0.01")
	return Input{
		Address: AddressInput{FullName: " Ada Lovelace ", Address: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		Lines: []LineInput{
			{PhotoID: f.photoA.ID, FormatID: f.large.ID, Quantity: 2, ClientPrice: &wrongPrice},
			{PhotoID: f.photoB.ID, FormatID: f.small.ID, Quantity: 1},
		},
	}
}

func countRows(t *testing.T, client *db.Client, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, client.DB().Model(model).Count(&n).Error)
	return n
}

func TestPlaceOrderPersistsOrderAtCatalogPrices(t *testing.T) {
	f := newCheckoutFixture(t)
	svc := f.service(t, nil)

	result, err := svc.PlaceOrder(context.Background(), f.user.ID, f.input())
	require.NoError(t, err)
	require.Equal(t, StateCommitted, result.State)
	require.Equal(t, "pi_test_1_secret_abc", result.ClientSecret)
	require.True(t, result.Total.Equal(decimal.RequireFromString("25.00")))
	require.EqualValues(t, 2500, result.AmountMinor)

	require.Len(t, f.intents.created, 1)
	params := f.intents.created[0]
	require.EqualValues(t, 2500, *params.Amount)
	require.Equal(t, "usd", *params.Currency)
	require.Equal(t, map[string]string{"order_id": decimalID(result.OrderID)}, params.Metadata)
	require.Equal(t, "order-"+decimalID(result.OrderID)+"-intent", *params.IdempotencyKey)
	require.True(t, f.intents.hadDeadline)

	order, err := orders.NewRepository(f.client.DB()).FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	require.Equal(t, "pi_test_1", *order.PaymentIntentID)
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25")))
	require.Equal(t, "Ada Lovelace", order.ShippingAddress.RecipientName)
	require.Equal(t, "USA", order.ShippingAddress.Country)

	require.Len(t, order.Items, 2)
	sum := decimal.Zero
	for _, item := range order.Items {
		sum = sum.Add(item.LineTotal())
		if item.FormatID == f.large.ID {
			require.True(t, item.UnitPrice.Equal(decimal.RequireFromString("10")), "client price must be ignored")
		}
	}
	require.True(t, sum.Equal(order.TotalAmount))

	require.Zero(t, countRows(t, f.client, &models.CartItem{}))

	var event models.OutboxEvent
	require.NoError(t, f.client.DB().First(&event).Error)
	require.Equal(t, enums.EventOrderCreated, event.EventType)
	require.Equal(t, result.OrderID, event.AggregateID)

	require.Equal(t, []recordedOutcome{{outcome: metrics.OutcomeSuccess}}, f.observer.outcomes)
}

func TestPlaceOrderUnknownFormatWritesNothing(t *testing.T) {
	f := newCheckoutFixture(t)
	svc := f.service(t, nil)
	input := f.input()
	input.Lines = append(input.Lines, LineInput{PhotoID: f.photoA.ID, FormatID: 9999, Quantity: 1})

	_, err := svc.PlaceOrder(context.Background(), f.user.ID, input)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	require.Equal(t, map[string]any{"unknown_format_ids": []int64{9999}}, pkgerrors.As(err).Details())

	require.Empty(t, f.intents.created)
	require.Zero(t, countRows(t, f.client, &models.Order{}))
	require.Zero(t, countRows(t, f.client, &models.OrderItem{}))
	require.Zero(t, countRows(t, f.client, &models.ShippingAddress{}))
	require.EqualValues(t, 2, countRows(t, f.client, &models.CartItem{}))
	require.Equal(t, metrics.OutcomeRejected, f.observer.outcomes[0].outcome)
}

func TestPlaceOrderProviderFailureRollsBack(t *testing.T) {
	f := newCheckoutFixture(t)
	providerErr := errors.New("card network down")
	f.intents.createErr = providerErr
	svc := f.service(t, nil)

	_, err := svc.PlaceOrder(context.Background(), f.user.ID, f.input())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderProcessing))
	require.Equal(t, map[string]any{"step": StatePaymentInitiated, "reached": StateCartCleared}, pkgerrors.As(err).Details())
	require.ErrorIs(t, err, providerErr)

	require.Zero(t, countRows(t, f.client, &models.Order{}))
	require.Zero(t, countRows(t, f.client, &models.OrderItem{}))
	require.Zero(t, countRows(t, f.client, &models.ShippingAddress{}))
	require.Zero(t, countRows(t, f.client, &models.OutboxEvent{}))
	require.EqualValues(t, 2, countRows(t, f.client, &models.CartItem{}))
	require.Empty(t, f.intents.canceled)
	require.Equal(t, []recordedOutcome{{outcome: metrics.OutcomeAborted, step: string(StatePaymentInitiated)}}, f.observer.outcomes)
}

func TestPlaceOrderCancelsIntentWhenLaterStepFails(t *testing.T) {
	f := newCheckoutFixture(t)
	svc := f.service(t, failingOutbox{})

	_, err := svc.PlaceOrder(context.Background(), f.user.ID, f.input())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderProcessing))
	require.Equal(t, []string{"pi_test_1"}, f.intents.canceled)
	require.Zero(t, countRows(t, f.client, &models.Order{}))
	require.EqualValues(t, 2, countRows(t, f.client, &models.CartItem{}))
}

func TestPlaceOrderRejectsEmptyCartBeforeTouchingStorage(t *testing.T) {
	t.Parallel()

	intents := &fakeIntents{}
	svc, err := NewService(ServiceParams{
		TransactionRunner: panicRunner{},
		OrdersRepo:        orders.NewRepository(nil),
		CartRepo:          cart.NewRepository(nil),
		PaymentIntents:    intents,
		Outbox:            failingOutbox{},
	})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), 7, Input{
		Address: AddressInput{FullName: "A", Address: "B", City: "C", State: "D", Zip: "E"},
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	require.Empty(t, intents.created)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

type panicRunner struct{}

func (panicRunner) WithTx(context.Context, func(tx *gorm.DB) error) error {
	panic("transaction must not start")
}

func decimalID(id int64) string {
	return strconv.FormatInt(id, 10)
}
