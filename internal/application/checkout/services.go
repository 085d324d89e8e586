package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sbag9697/wealth-face-ai/internal/application"
	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	"github.com/sbag9697/wealth-face-ai/internal/domain/payment"
	"github.com/sbag9697/wealth-face-ai/internal/domain/session"
	"github.com/sbag9697/wealth-face-ai/internal/logger"
)

// Service issues orders for sessions, confirms payments with the vendor and
// releases the full report once a session is paid.
type Service struct {
	Sessions     session.Repository
	Gateway      payment.Gateway
	Clock        application.Clock
	Amount       int64
	OrderName    string
	CustomerName string
	ClientKey    string
	PublicURL    string
}

// Checkout binds an order to the session and returns the widget parameters.
// An unpaid session keeps the order it was already issued at the current
// price, so every checkout surface for it names the same orderId.
func (s *Service) Checkout(ctx context.Context, id session.ID) (payment.Order, error) {
	sess, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return payment.Order{}, err
	}
	if sess.Unlocked() {
		return payment.Order{}, payment.ErrAlreadyPaid
	}

	orderID := sess.OrderID
	if orderID == "" || sess.Amount != s.Amount {
		orderID = fmt.Sprintf("ORDER_%d_%s", s.Clock.Now().UnixMilli(), strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
		if err := s.Sessions.AttachOrder(ctx, id, orderID, s.Amount); err != nil {
			return payment.Order{}, fmt.Errorf("attach order: %w", err)
		}
	}

	base := strings.TrimSuffix(s.PublicURL, "/")
	return payment.Order{
		OrderID:      orderID,
		OrderName:    s.OrderName,
		Amount:       s.Amount,
		CustomerName: s.CustomerName,
		SuccessURL:   base + "/result",
		FailURL:      base + "/result?fail=true",
		ClientKey:    s.ClientKey,
	}, nil
}

// Confirm verifies the triple with the vendor. When id is non-empty the triple
// must match the order issued for that session, and the session is marked
// paid on success.
func (s *Service) Confirm(ctx context.Context, id session.ID, c payment.Confirmation) (json.RawMessage, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var sess *session.Session
	if id != "" {
		var err error
		sess, err = s.Sessions.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess.OrderID != c.OrderID || sess.Amount != c.Amount {
			return nil, fmt.Errorf("%w: order %s amount %d", payment.ErrOrderMismatch, c.OrderID, c.Amount)
		}
		// A reload of the success redirect must not turn into a vendor
		// "already processed" failure.
		if sess.Unlocked() && sess.PaymentKey == c.PaymentKey {
			return alreadyConfirmed(c)
		}
	}

	payload, err := s.Gateway.Confirm(ctx, c)
	if err != nil {
		logger.Log.WithError(err).WithField("order", c.OrderID).Warn("payment confirmation failed")
		return nil, err
	}

	if sess != nil {
		if err := s.Sessions.MarkPaid(ctx, sess.ID, c.PaymentKey, s.Clock.Now().UTC()); err != nil {
			return nil, fmt.Errorf("record payment for %s: %w", sess.ID, err)
		}
	}
	logger.Log.WithField("order", c.OrderID).Info("payment confirmed")
	return payload, nil
}

// Report returns the full reading for a paid session.
func (s *Service) Report(ctx context.Context, id session.ID) (analysis.Result, error) {
	sess, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return analysis.Result{}, err
	}
	if !sess.Unlocked() {
		return analysis.Result{}, payment.ErrPaymentRequired
	}
	return sess.Result, nil
}

func alreadyConfirmed(c payment.Confirmation) (json.RawMessage, error) {
	return json.Marshal(map[string]any{
		"paymentKey":       c.PaymentKey,
		"orderId":          c.OrderID,
		"totalAmount":      c.Amount,
		"status":           "DONE",
		"alreadyConfirmed": true,
	})
}
