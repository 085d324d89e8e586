// Package result decides what the result screen shows after the payment
// redirect. It displays a report only after a verified confirmation or a
// success flag backed by an unlocked copy.
package result

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sbag9697/wealth-face-ai/internal/application"
	"github.com/sbag9697/wealth-face-ai/internal/client"
	"github.com/sbag9697/wealth-face-ai/internal/client/store"
	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	"github.com/sbag9697/wealth-face-ai/internal/domain/payment"
	"github.com/sbag9697/wealth-face-ai/internal/logger"
)

var (
	ErrInvalidAccess = errors.New("잘못된 접근입니다")
	ErrPaymentFailed = errors.New("payment failed")
)

// Params are the redirect query parameters.
type Params struct {
	PaymentKey string
	OrderID    string
	Amount     string
	Success    bool
	Fail       bool
	Code       string
	Message    string
}

// ParseQuery reads Params from a redirect query.
func ParseQuery(q url.Values) Params {
	return Params{
		PaymentKey: q.Get("paymentKey"),
		OrderID:    q.Get("orderId"),
		Amount:     q.Get("amount"),
		Success:    q.Get("success") == "true",
		Fail:       q.Get("fail") == "true",
		Code:       q.Get("code"),
		Message:    q.Get("message"),
	}
}

func (p Params) hasTriple() bool {
	return p.PaymentKey != "" && p.OrderID != "" && p.Amount != ""
}

// API is the part of the server the renderer needs.
type API interface {
	Confirm(ctx context.Context, sessionToken string, c payment.Confirmation) (json.RawMessage, error)
	Report(ctx context.Context, sessionToken string) (*analysis.Result, error)
}

// View is what to display. Report is nil unless the reading is unlocked.
type View struct {
	Report *analysis.Result
	// Next is the canonical URL once the triple has been consumed.
	Next string
}

type Renderer struct {
	API   API
	Store store.Store
	Clock application.Clock
}

// Render applies the redirect parameters: the triple first, then the success
// flag, then the failure flag. Anything else is an invalid access.
func (r *Renderer) Render(ctx context.Context, p Params) (View, error) {
	switch {
	case p.hasTriple():
		return r.confirm(ctx, p)
	case p.Success:
		return r.reopen(ctx)
	case p.Fail:
		msg := p.Message
		if msg == "" {
			msg = "결제가 취소되었거나 실패했습니다"
		}
		if p.Code != "" {
			return View{}, fmt.Errorf("%w: %s (%s)", ErrPaymentFailed, msg, p.Code)
		}
		return View{}, fmt.Errorf("%w: %s", ErrPaymentFailed, msg)
	default:
		return View{}, ErrInvalidAccess
	}
}

func (r *Renderer) confirm(ctx context.Context, p Params) (View, error) {
	amount, err := strconv.ParseInt(p.Amount, 10, 64)
	if err != nil {
		return View{}, fmt.Errorf("%w: amount %q", ErrInvalidAccess, p.Amount)
	}
	st, err := r.Store.Load(ctx)
	if err != nil && !errors.Is(err, store.ErrEmpty) {
		return View{}, err
	}

	conf := payment.Confirmation{PaymentKey: p.PaymentKey, OrderID: p.OrderID, Amount: amount}
	if _, err := r.API.Confirm(ctx, st.SessionToken, conf); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return View{}, fmt.Errorf("%w: %s", ErrPaymentFailed, apiErr.Message)
		}
		return View{}, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if st.SessionToken == "" {
		return View{}, fmt.Errorf("%w: no stored analysis for this payment", ErrInvalidAccess)
	}

	report, err := r.API.Report(ctx, st.SessionToken)
	if err != nil {
		return View{}, err
	}
	r.remember(ctx, st, report)
	return View{Report: report, Next: "/result?success=true"}, nil
}

func (r *Renderer) reopen(ctx context.Context) (View, error) {
	st, err := r.Store.Load(ctx)
	if errors.Is(err, store.ErrEmpty) {
		return View{}, ErrInvalidAccess
	}
	if err != nil {
		return View{}, err
	}
	if st.PaymentSuccess && st.Report != nil {
		return View{Report: st.Report}, nil
	}
	if st.SessionToken == "" {
		return View{}, ErrInvalidAccess
	}
	// the server holds the unlock state; a bare success flag proves nothing
	report, err := r.API.Report(ctx, st.SessionToken)
	if err != nil {
		if client.IsStatus(err, http.StatusPaymentRequired) {
			return View{}, fmt.Errorf("%w: %v", ErrInvalidAccess, err)
		}
		return View{}, err
	}
	r.remember(ctx, st, report)
	return View{Report: report}, nil
}

func (r *Renderer) remember(ctx context.Context, st store.State, report *analysis.Result) {
	st.Report = report
	st.PaymentSuccess = true
	if r.Clock != nil {
		st.UpdatedAt = r.Clock.Now().UTC()
	}
	if err := r.Store.Save(ctx, st); err != nil {
		logger.Log.WithError(err).Warn("could not store unlocked report")
	}
}
