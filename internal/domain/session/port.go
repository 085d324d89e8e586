package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when no session has the given id.
var ErrNotFound = errors.New("session not found")

// Repository port for persisting sessions.
type Repository interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id ID) (*Session, error)
	AttachOrder(ctx context.Context, id ID, orderID string, amount int64) error
	MarkPaid(ctx context.Context, id ID, paymentKey string, paidAt time.Time) error
	Ping(ctx context.Context) error
}
