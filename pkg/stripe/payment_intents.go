package stripe

import (
	"context"
	"strconv"

	"github.com/stripe/stripe-go/v84"
)

// PaymentIntentClient exposes the subset of Stripe payment intent operations used by checkout.
type PaymentIntentClient interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	Cancel(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

type paymentIntents struct {
	api *stripe.Client
}

// NewPaymentIntentClient returns the live payment intent client, or nil when
// api has no Stripe client behind it.
func NewPaymentIntentClient(api *Client) PaymentIntentClient {
	if api.API() == nil {
		return nil
	}
	return &paymentIntents{api: api.API()}
}

func (p *paymentIntents) Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	return p.api.V1PaymentIntents.Create(ctx, params)
}

func (p *paymentIntents) Cancel(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
	return p.api.V1PaymentIntents.Cancel(ctx, id, params)
}

// OrderIntentParams builds the create params for an order total expressed in
// minor units. The idempotency key is derived from the order id so a retried
// call cannot open a second intent for the same order.
func OrderIntentParams(orderID, amountMinor int64, currency string) *stripe.PaymentIntentCreateParams {
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("order_id", strconv.FormatInt(orderID, 10))
	params.SetIdempotencyKey(OrderIntentIdempotencyKey(orderID))
	return params
}

// OrderIntentIdempotencyKey is the Stripe idempotency key used for an order's intent.
func OrderIntentIdempotencyKey(orderID int64) string {
	return "order-" + strconv.FormatInt(orderID, 10) + "-intent"
}
