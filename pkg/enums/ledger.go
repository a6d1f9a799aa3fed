package enums

// PaymentProvider names the gateway that produced a ledger row.
type PaymentProvider string

const PaymentProviderStripe PaymentProvider = "stripe"

// PaymentMethodKind describes the instrument used for a payment.
type PaymentMethodKind string

const PaymentMethodCard PaymentMethodKind = "card"

// TxnType classifies ledger rows.
type TxnType string

const (
	TxnTypeCharge TxnType = "charge"
	TxnTypeRefund TxnType = "refund"
)

// IsValid reports whether the value is a known TxnType.
func (t TxnType) IsValid() bool {
	return t == TxnTypeCharge || t == TxnTypeRefund
}
