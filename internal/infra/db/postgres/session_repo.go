package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sbag9697/wealth-face-ai/internal/domain/analysis"
	domain "github.com/sbag9697/wealth-face-ai/internal/domain/session"
)

type SessionRepository struct{ db *sql.DB }

func NewSessionRepository(db *sql.DB) *SessionRepository { return &SessionRepository{db: db} }

// Save inserts or updates a session record
func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	const q = `
INSERT INTO face_sessions
  (id, result_json, fallback, status, image_key, order_id, amount, payment_key, created_at, paid_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  result_json=EXCLUDED.result_json,
  fallback=EXCLUDED.fallback,
  status=EXCLUDED.status,
  image_key=EXCLUDED.image_key,
  order_id=EXCLUDED.order_id,
  amount=EXCLUDED.amount,
  payment_key=EXCLUDED.payment_key,
  paid_at=EXCLUDED.paid_at;`

	result, err := json.Marshal(s.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, q,
		s.ID, string(result), s.Fallback, string(s.Status), s.ImageKey, s.OrderID, s.Amount, s.PaymentKey, created, s.PaidAt,
	)
	return err
}

// Get by ID
func (r *SessionRepository) Get(ctx context.Context, id domain.ID) (*domain.Session, error) {
	const q = `
SELECT id, result_json, fallback, status, image_key, order_id, amount, payment_key, created_at, paid_at
FROM face_sessions
WHERE id=$1
LIMIT 1;`
	var (
		s      domain.Session
		raw    []byte
		paidAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &raw, &s.Fallback, &s.Status, &s.ImageKey, &s.OrderID, &s.Amount, &s.PaymentKey, &s.CreatedAt, &paidAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var result analysis.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode result for %s: %w", id, err)
	}
	s.Result = result
	if paidAt.Valid {
		t := paidAt.Time
		s.PaidAt = &t
	}
	return &s, nil
}

func (r *SessionRepository) AttachOrder(ctx context.Context, id domain.ID, orderID string, amount int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE face_sessions SET order_id=$1, amount=$2 WHERE id=$3;`, orderID, amount, id)
	return affectedOne(res, err)
}

func (r *SessionRepository) MarkPaid(ctx context.Context, id domain.ID, paymentKey string, paidAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE face_sessions SET status=$1, payment_key=$2, paid_at=$3 WHERE id=$4;`,
		string(domain.StatusPaid), paymentKey, paidAt, id)
	return affectedOne(res, err)
}

func (r *SessionRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
