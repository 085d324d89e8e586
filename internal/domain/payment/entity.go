package payment

import "fmt"

// Confirmation is the identifier triple the vendor hands back on redirect.
// It is validated here, never generated.
type Confirmation struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// Validate checks the triple is complete.
func (c Confirmation) Validate() error {
	switch {
	case c.PaymentKey == "":
		return fmt.Errorf("%w: paymentKey is required", ErrInvalidRequest)
	case c.OrderID == "":
		return fmt.Errorf("%w: orderId is required", ErrInvalidRequest)
	case c.Amount <= 0:
		return fmt.Errorf("%w: amount must be a positive integer", ErrInvalidRequest)
	}
	return nil
}

// Order carries what the hosted checkout widget needs to start a payment.
type Order struct {
	OrderID      string `json:"orderId"`
	OrderName    string `json:"orderName"`
	Amount       int64  `json:"amount"`
	CustomerName string `json:"customerName"`
	SuccessURL   string `json:"successUrl"`
	FailURL      string `json:"failUrl"`
	ClientKey    string `json:"clientKey"`
}

// VendorError is a non-2xx answer from the settlement API. Status and Message
// are surfaced to the caller unchanged.
type VendorError struct {
	Status  int
	Code    string
	Message string
}

func (e *VendorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment vendor %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("payment vendor %d: %s", e.Status, e.Message)
}
