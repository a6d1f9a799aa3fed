package enums

import "fmt"

// PaymentStatus tracks the payment side of an order. Only pending orders
// move; paid and failed are terminal.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// orderStatusByPayment is the order status an order lands in for each payment status.
var orderStatusByPayment = map[PaymentStatus]OrderStatus{
	PaymentStatusPending: OrderStatusPending,
	PaymentStatusPaid:    OrderStatusPlaced,
	PaymentStatusFailed:  OrderStatusMissingPayment,
}

func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	_, ok := orderStatusByPayment[p]
	return ok
}

// IsTerminal reports whether a webhook has already settled the payment.
func (p PaymentStatus) IsTerminal() bool {
	return p == PaymentStatusPaid || p == PaymentStatusFailed
}

// OrderStatus returns the order status paired with p.
func (p PaymentStatus) OrderStatus() OrderStatus {
	return orderStatusByPayment[p]
}

// PaymentStatusForIntent maps a payment intent outcome to the order's payment status.
func PaymentStatusForIntent(succeeded bool) PaymentStatus {
	if succeeded {
		return PaymentStatusPaid
	}
	return PaymentStatusFailed
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	status := PaymentStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid payment status %q", value)
	}
	return status, nil
}
