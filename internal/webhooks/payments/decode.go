package payments

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

// EventTypePaymentIntentFailed is the legacy alias some senders still use
// for payment_intent.payment_failed.
const EventTypePaymentIntentFailed stripe.EventType = "payment_intent.failed"

const intentStatusSucceeded = "succeeded"

// Recognized reports whether eventType is a payment outcome this service reconciles.
func Recognized(eventType string) bool {
	switch stripe.EventType(eventType) {
	case stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed,
		EventTypePaymentIntentFailed:
		return true
	}
	return false
}

// Card is the card summary attached to a charge.
type Card struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// IntentOutcome is the part of a payment intent event the reconciler needs.
type IntentOutcome struct {
	EventID      string
	EventType    string
	IntentID     string
	AmountMinor  int64
	Currency     string
	IntentStatus string
	OrderID      int64
	Card         Card
}

// Succeeded reports whether the intent was paid.
func (o IntentOutcome) Succeeded() bool {
	if o.IntentStatus != "" {
		return o.IntentStatus == intentStatusSucceeded
	}
	return stripe.EventType(o.EventType) == stripe.EventTypePaymentIntentSucceeded
}

// intentPayload covers both API shapes: charges.data[] on older versions and
// an expanded latest_charge on newer ones.
type intentPayload struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
	Charges      *chargeList       `json:"charges"`
	LatestCharge json.RawMessage   `json:"latest_charge"`
}

type chargeList struct {
	Data []chargePayload `json:"data"`
}

type chargePayload struct {
	PaymentMethodDetails *struct {
		Card *Card `json:"card"`
	} `json:"payment_method_details"`
}

// DecodeIntentEvent extracts the order, amount and card from a recognized
// payment intent event. Missing card details or order metadata yield a
// MALFORMED_EVENT error, which must not be retried.
func DecodeIntentEvent(event stripe.Event) (*IntentOutcome, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, malformed(event, "event data missing")
	}

	var intent intentPayload
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeMalformedEvent, err, "decode payment intent").
			WithDetails(map[string]any{"event_id": event.ID})
	}
	if intent.ID == "" {
		return nil, malformed(event, "payment intent id missing")
	}

	rawOrderID := strings.TrimSpace(intent.Metadata["order_id"])
	orderID, err := strconv.ParseInt(rawOrderID, 10, 64)
	if err != nil || orderID <= 0 {
		return nil, malformed(event, "order_id metadata missing or invalid")
	}

	card := intent.card()
	if card == nil || card.Brand == "" || card.Last4 == "" {
		return nil, malformed(event, "card details missing")
	}

	return &IntentOutcome{
		EventID:      event.ID,
		EventType:    string(event.Type),
		IntentID:     intent.ID,
		AmountMinor:  intent.Amount,
		Currency:     strings.ToLower(intent.Currency),
		IntentStatus: intent.Status,
		OrderID:      orderID,
		Card:         *card,
	}, nil
}

func (p intentPayload) card() *Card {
	if p.Charges != nil {
		for _, charge := range p.Charges.Data {
			if c := charge.card(); c != nil {
				return c
			}
		}
	}
	// latest_charge is a bare id unless expanded.
	trimmed := bytes.TrimSpace(p.LatestCharge)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var latest chargePayload
	if err := json.Unmarshal(trimmed, &latest); err != nil {
		return nil
	}
	return latest.card()
}

func (c chargePayload) card() *Card {
	if c.PaymentMethodDetails == nil {
		return nil
	}
	return c.PaymentMethodDetails.Card
}

func malformed(event stripe.Event, reason string) error {
	return pkgerrors.New(pkgerrors.CodeMalformedEvent, reason).
		WithDetails(map[string]any{"event_id": event.ID, "event_type": string(event.Type)})
}
