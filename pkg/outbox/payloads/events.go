package payloads

// OrderCreatedEvent is emitted when checkout commits a new order.
type OrderCreatedEvent struct {
	OrderID         int64  `json:"order_id"`
	UserID          int64  `json:"user_id"`
	TotalAmount     string `json:"total_amount"`
	AmountMinor     int64  `json:"amount_minor"`
	Currency        string `json:"currency"`
	ItemCount       int    `json:"item_count"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// OrderPaymentEvent is emitted when a payment outcome is applied to an order.
type OrderPaymentEvent struct {
	OrderID         int64  `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	IntentStatus    string `json:"intent_status"`
	AmountMinor     int64  `json:"amount_minor"`
	Currency        string `json:"currency"`
	OrderStatus     string `json:"order_status"`
	PaymentStatus   string `json:"payment_status"`
	ProviderEventID string `json:"provider_event_id"`
}
