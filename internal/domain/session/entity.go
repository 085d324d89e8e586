package session

import (
	"time"

	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
)

// ID identifies one upload's session.
type ID string

// Status of the paywall for a session.
type Status string

const (
	StatusTeaser Status = "teaser"
	StatusPaid   Status = "paid"
)

// Session is the server side record of one upload: the full reading, the
// order issued for it and, once confirmed, the payment that unlocked it.
type Session struct {
	ID         ID              `json:"id"`
	Result     analysis.Result `json:"result"`
	Fallback   bool            `json:"fallback"`
	Status     Status          `json:"status"`
	ImageKey   string          `json:"image_key,omitempty"`
	OrderID    string          `json:"order_id,omitempty"`
	Amount     int64           `json:"amount,omitempty"`
	PaymentKey string          `json:"payment_key,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
}

// Unlocked reports whether the full result may leave the server.
func (s *Session) Unlocked() bool {
	return s != nil && s.Status == StatusPaid
}
