package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/internal/cart"
	"github.com/angelmondragon/printshop-backend/internal/catalog"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/payloads"
	pkgstripe "github.com/angelmondragon/printshop-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type outcomeObserver interface {
	Observe(outcome, step string, elapsed time.Duration)
}

// Service places orders from a checkout submission.
type Service interface {
	PlaceOrder(ctx context.Context, userID int64, input Input) (*Result, error)
}

// Result is what the client needs to confirm payment.
type Result struct {
	OrderID         int64
	ClientSecret    string
	PaymentIntentID string
	Total           decimal.Decimal
	AmountMinor     int64
	State           State
}

// Settings are the checkout knobs read from config.
type Settings struct {
	Currency       string
	DefaultCountry string
	PaymentTimeout time.Duration
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	TransactionRunner txRunner
	OrdersRepo        orders.Repository
	CartRepo          cart.CartRepository
	PaymentIntents    pkgstripe.PaymentIntentClient
	Outbox            outboxPublisher
	Metrics           outcomeObserver
	Logger            *logger.Logger
	Settings          Settings
}

type service struct {
	tx       txRunner
	orders   orders.Repository
	cart     cart.CartRepository
	intents  pkgstripe.PaymentIntentClient
	outbox   outboxPublisher
	metrics  outcomeObserver
	logg     *logger.Logger
	settings Settings
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.PaymentIntents == nil {
		return nil, fmt.Errorf("payment intent client required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	settings := params.Settings
	if settings.Currency == "" {
		settings.Currency = string(enums.CurrencyUSD)
	}
	currency, err := enums.ParseCurrency(settings.Currency)
	if err != nil {
		return nil, err
	}
	settings.Currency = currency.String()
	if settings.DefaultCountry == "" {
		settings.DefaultCountry = "USA"
	}
	if settings.PaymentTimeout <= 0 {
		settings.PaymentTimeout = 10 * time.Second
	}
	observer := params.Metrics
	if observer == nil {
		observer = (*metrics.CheckoutMetrics)(nil)
	}
	return &service{
		tx:       params.TransactionRunner,
		orders:   params.OrdersRepo,
		cart:     params.CartRepo,
		intents:  params.PaymentIntents,
		outbox:   params.Outbox,
		metrics:  observer,
		logg:     params.Logger,
		settings: settings,
	}, nil
}

// PlaceOrder runs the order placement transaction. Nothing is persisted unless
// the payment intent was created; every failure rolls the whole unit back.
func (s *service) PlaceOrder(ctx context.Context, userID int64, input Input) (*Result, error) {
	started := time.Now()
	machine := NewMachine()

	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	if err := ValidateShape(input); err != nil {
		s.metrics.Observe(metrics.OutcomeRejected, "", time.Since(started))
		return nil, err
	}

	var (
		result    *Result
		intent    *stripe.PaymentIntent
		rejection error
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		cartRepo := s.cart.WithTx(tx)

		prices, err := catalog.Load(ctx, tx)
		if err != nil {
			return err
		}
		snapshot, err := NewSnapshot(input, prices, s.settings.DefaultCountry)
		if err != nil {
			rejection = err
			return err
		}
		s.warnPriceMismatches(ctx, snapshot)

		address, err := ordersRepo.CreateShippingAddress(ctx, &models.ShippingAddress{
			UserID:        userID,
			RecipientName: snapshot.Address.FullName,
			Address:       snapshot.Address.Address,
			City:          snapshot.Address.City,
			Region:        snapshot.Address.State,
			PostalCode:    snapshot.Address.Zip,
			Country:       snapshot.Address.Country,
		})
		if err != nil {
			return err
		}
		if err := machine.Advance(StateAddressRecorded); err != nil {
			return err
		}

		total := snapshot.Total()
		amountMinor := enums.Currency(s.settings.Currency).ToMinor(total)
		if err := machine.Advance(StateTotalComputed); err != nil {
			return err
		}

		order, err := ordersRepo.CreateOrder(ctx, &models.Order{
			UserID:            userID,
			ShippingAddressID: address.ID,
			TotalAmount:       total,
			Status:            enums.OrderStatusPending,
			PaymentStatus:     enums.PaymentStatusPending,
		})
		if err != nil {
			return err
		}
		if err := machine.Advance(StateOrderCreated); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(snapshot.Lines))
		for _, line := range snapshot.Lines {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				PhotoID:   line.PhotoID,
				FormatID:  line.FormatID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}
		if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
			return err
		}
		if err := machine.Advance(StateItemsRecorded); err != nil {
			return err
		}

		if _, err := cartRepo.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := machine.Advance(StateCartCleared); err != nil {
			return err
		}

		intent, err = s.createIntent(ctx, order.ID, amountMinor)
		if err != nil {
			return err
		}
		if err := ordersRepo.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
			return err
		}
		if err := machine.Advance(StatePaymentInitiated); err != nil {
			return err
		}

		if err := s.emitOrderCreated(ctx, tx, userID, order.ID, total, amountMinor, len(items), intent.ID); err != nil {
			return err
		}

		result = &Result{
			OrderID:         order.ID,
			ClientSecret:    intent.ClientSecret,
			PaymentIntentID: intent.ID,
			Total:           total,
			AmountMinor:     amountMinor,
		}
		return nil
	})
	if err == nil {
		if advanceErr := machine.Advance(StateCommitted); advanceErr != nil {
			err = advanceErr
		}
	}
	if err == nil {
		result.State = machine.Current()
		s.metrics.Observe(metrics.OutcomeSuccess, "", time.Since(started))
		return result, nil
	}

	reached := machine.Reached()
	failedStep := reached
	if next, ok := forward[reached]; ok {
		failedStep = next
	}
	_ = machine.Abort()

	if intent != nil {
		s.cancelIntent(ctx, intent.ID)
	}
	if rejection != nil {
		s.metrics.Observe(metrics.OutcomeRejected, "", time.Since(started))
		return nil, rejection
	}

	s.metrics.Observe(metrics.OutcomeAborted, string(failedStep), time.Since(started))
	return nil, pkgerrors.Wrap(pkgerrors.CodeOrderProcessing, err, "order processing failed").
		WithDetails(map[string]any{"step": failedStep, "reached": reached})
}

// createIntent calls the provider with its own deadline so a slow gateway
// aborts the transaction instead of holding it open.
func (s *service) createIntent(ctx context.Context, orderID, amountMinor int64) (*stripe.PaymentIntent, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.settings.PaymentTimeout)
	defer cancel()

	intent, err := s.intents.Create(callCtx, pkgstripe.OrderIntentParams(orderID, amountMinor, s.settings.Currency))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	if intent == nil || intent.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment provider returned no intent")
	}
	return intent, nil
}

// cancelIntent is best effort: the order it paid for no longer exists.
func (s *service) cancelIntent(ctx context.Context, intentID string) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.PaymentTimeout)
	defer cancel()

	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	if _, err := s.intents.Cancel(callCtx, intentID, params); err != nil && s.logg != nil {
		logCtx := s.logg.WithField(ctx, "payment_intent_id", intentID)
		s.logg.Error(logCtx, "cancel orphaned payment intent", err)
	}
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, userID, orderID int64, total decimal.Decimal, amountMinor int64, itemCount int, intentID string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         &outbox.ActorRef{UserID: userID, Source: "checkout"},
		Data: payloads.OrderCreatedEvent{
			OrderID:         orderID,
			UserID:          userID,
			TotalAmount:     total.StringFixed(2),
			AmountMinor:     amountMinor,
			Currency:        s.settings.Currency,
			ItemCount:       itemCount,
			PaymentIntentID: intentID,
		},
	})
}

func (s *service) warnPriceMismatches(ctx context.Context, snapshot CartSnapshot) {
	if s.logg == nil {
		return
	}
	for _, line := range snapshot.Lines {
		if !line.PriceMismatch() {
			continue
		}
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"format_id":     line.FormatID,
			"client_price":  line.ClientPrice.String(),
			"catalog_price": line.UnitPrice.String(),
		})
		s.logg.Warn(logCtx, "client price differs from catalog, using catalog price")
	}
}
