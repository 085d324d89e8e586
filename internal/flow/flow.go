// Package flow drives one upload from photo selection to the paywall.
package flow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sbag9697/wealth-face-ai/internal/application"
	"github.com/sbag9697/wealth-face-ai/internal/client"
	"github.com/sbag9697/wealth-face-ai/internal/client/store"
	"github.com/sbag9697/wealth-face-ai/internal/domain/payment"
	"github.com/sbag9697/wealth-face-ai/internal/imageprep"
	"github.com/sbag9697/wealth-face-ai/internal/logger"
)

// State of the upload screen.
type State string

const (
	StateUpload   State = "upload"
	StateScanning State = "scanning"
	StateTeaser   State = "teaser"
)

// DefaultRevealDelay is the cosmetic pause between the server answer and the
// teaser.
const DefaultRevealDelay = 3 * time.Second

var (
	ErrBusy     = errors.New("an analysis is already running")
	ErrNotReady = errors.New("payment is only available once the teaser is shown")
)

// API is the part of the server the flow needs.
type API interface {
	Analyze(ctx context.Context, dataURI string) (*client.AnalyzeResponse, error)
	Checkout(ctx context.Context, sessionToken string) (*payment.Order, error)
}

// PaymentWidget hands the order to the vendor's hosted checkout. It leaves the
// app; the flow resumes in the result renderer.
type PaymentWidget interface {
	Open(ctx context.Context, order payment.Order) error
}

type Controller struct {
	API         API
	Store       store.Store
	Widget      PaymentWidget
	Clock       application.Clock
	RevealDelay time.Duration
	Prep        imageprep.Options

	mu    sync.Mutex
	state State
}

// State returns the current screen; the zero Controller starts at upload.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == "" {
		return StateUpload
	}
	return c.state
}

func (c *Controller) transition(from []State, to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.state
	if cur == "" {
		cur = StateUpload
	}
	for _, f := range from {
		if f == cur {
			c.state = to
			return nil
		}
	}
	if cur == StateScanning {
		return ErrBusy
	}
	return fmt.Errorf("cannot move from %s to %s", cur, to)
}

func (c *Controller) set(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Select resizes the photo, submits it and, after the reveal delay, shows the
// teaser. Any failure returns to upload.
func (c *Controller) Select(ctx context.Context, photo io.Reader) (*client.AnalyzeResponse, error) {
	if err := c.transition([]State{StateUpload, StateTeaser}, StateScanning); err != nil {
		return nil, err
	}

	res, err := c.scan(ctx, photo)
	if err != nil {
		c.set(StateUpload)
		return nil, err
	}
	c.set(StateTeaser)
	return res, nil
}

func (c *Controller) scan(ctx context.Context, photo io.Reader) (*client.AnalyzeResponse, error) {
	prepared, err := imageprep.Prepare(photo, c.Prep)
	if err != nil {
		return nil, err
	}
	logger.Log.WithFields(logrus.Fields{"width": prepared.Width, "height": prepared.Height, "bytes": len(prepared.Data)}).Debug("photo prepared")

	res, err := c.API.Analyze(ctx, prepared.DataURI())
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	delay := c.RevealDelay
	if delay == 0 {
		delay = DefaultRevealDelay
	}
	if err := c.Clock.Sleep(ctx, delay); err != nil {
		return nil, err
	}

	// Only a revealed teaser replaces the stored upload.
	err = c.Store.Save(ctx, store.State{
		SessionToken: res.SessionToken,
		Teaser:       res.Result,
		Fallback:     res.Fallback,
		UpdatedAt:    c.Clock.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}
	return res, nil
}

// Pay requests an order for the stored session and opens the widget.
func (c *Controller) Pay(ctx context.Context) (*payment.Order, error) {
	if c.State() != StateTeaser {
		return nil, ErrNotReady
	}
	st, err := c.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	order, err := c.API.Checkout(ctx, st.SessionToken)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if err := c.Widget.Open(ctx, *order); err != nil {
		return nil, fmt.Errorf("open payment widget: %w", err)
	}
	return order, nil
}

// Resume puts a controller from a fresh process back at the teaser when the
// store still holds an upload.
func (c *Controller) Resume(ctx context.Context) error {
	if _, err := c.Store.Load(ctx); err != nil {
		return err
	}
	c.set(StateTeaser)
	return nil
}
