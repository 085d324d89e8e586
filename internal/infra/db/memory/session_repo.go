package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sbag9697/wealth-face-ai/internal/domain/session"
)

// SessionRepository keeps sessions in process. Used for local runs and tests;
// sessions are lost on restart.
type SessionRepository struct {
	mu   sync.RWMutex
	rows map[session.ID]session.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{rows: make(map[session.ID]session.Session)}
}

func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.ID] = *s
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id session.ID) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &s, nil
}

func (r *SessionRepository) AttachOrder(ctx context.Context, id session.ID, orderID string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return session.ErrNotFound
	}
	s.OrderID = orderID
	s.Amount = amount
	r.rows[id] = s
	return nil
}

func (r *SessionRepository) MarkPaid(ctx context.Context, id session.ID, paymentKey string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return session.ErrNotFound
	}
	s.Status = session.StatusPaid
	s.PaymentKey = paymentKey
	s.PaidAt = &paidAt
	r.rows[id] = s
	return nil
}

func (r *SessionRepository) Ping(ctx context.Context) error { return nil }
