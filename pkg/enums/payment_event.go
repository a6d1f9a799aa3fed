package enums

import "fmt"

// PaymentEventStatus tracks an inbound provider event through the inbox.
type PaymentEventStatus string

const (
	PaymentEventStatusPending    PaymentEventStatus = "pending"
	PaymentEventStatusProcessing PaymentEventStatus = "processing"
	PaymentEventStatusProcessed  PaymentEventStatus = "processed"
	PaymentEventStatusIgnored    PaymentEventStatus = "ignored"
	PaymentEventStatusFailed     PaymentEventStatus = "failed"
	PaymentEventStatusDeadLetter PaymentEventStatus = "dead_letter"
)

var validPaymentEventStatuses = []PaymentEventStatus{
	PaymentEventStatusPending,
	PaymentEventStatusProcessing,
	PaymentEventStatusProcessed,
	PaymentEventStatusIgnored,
	PaymentEventStatusFailed,
	PaymentEventStatusDeadLetter,
}

// String implements fmt.Stringer.
func (s PaymentEventStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentEventStatus.
func (s PaymentEventStatus) IsValid() bool {
	for _, candidate := range validPaymentEventStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Claimable reports whether an event in this status may still be processed.
func (s PaymentEventStatus) Claimable() bool {
	return s == PaymentEventStatusPending || s == PaymentEventStatusFailed
}

// ParsePaymentEventStatus converts raw input into a PaymentEventStatus.
func ParsePaymentEventStatus(value string) (PaymentEventStatus, error) {
	for _, candidate := range validPaymentEventStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment event status %q", value)
}
