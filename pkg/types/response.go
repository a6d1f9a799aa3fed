package types

// SuccessEnvelope wraps read endpoints.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the body of every non-2xx JSON response.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// CheckoutResponse is returned once an order and its payment intent exist.
type CheckoutResponse struct {
	Success      bool   `json:"success"`
	ClientSecret string `json:"client_secret"`
	OrderID      int64  `json:"order_id"`
}
