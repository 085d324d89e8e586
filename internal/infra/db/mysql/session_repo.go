package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/sbag9697/wealth-face-ai/internal/domain/session"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save inserts or replaces a session record
func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	const q = `
INSERT INTO face_sessions
  (id, result_json, fallback, status, image_key, order_id, amount, payment_key, created_at, paid_at)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  result_json=VALUES(result_json), fallback=VALUES(fallback), status=VALUES(status),
  image_key=VALUES(image_key), order_id=VALUES(order_id), amount=VALUES(amount),
  payment_key=VALUES(payment_key), paid_at=VALUES(paid_at);
`
	result, err := encodeResult(s.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	status := stringOrDash(string(s.Status))

	_, err = r.db.ExecContext(ctx, q,
		s.ID, result, s.Fallback, status, s.ImageKey, s.OrderID, s.Amount, s.PaymentKey, created, s.PaidAt,
	)
	return err
}

// Get by ID
func (r *SessionRepository) Get(ctx context.Context, id domain.ID) (*domain.Session, error) {
	const q = `
SELECT id, result_json, fallback, status, image_key, order_id, amount, payment_key, created_at, paid_at
FROM face_sessions
WHERE id=? LIMIT 1;
`
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
	if s.Result, err = decodeResult(raw); err != nil {
		return nil, fmt.Errorf("decode result for %s: %w", id, err)
	}
	if paidAt.Valid {
		t := paidAt.Time
		s.PaidAt = &t
	}
	return &s, nil
}

func (r *SessionRepository) AttachOrder(ctx context.Context, id domain.ID, orderID string, amount int64) error {
	const q = `UPDATE face_sessions SET order_id=?, amount=? WHERE id=?;`
	res, err := r.db.ExecContext(ctx, q, orderID, amount, id)
	return affectedOne(res, err)
}

func (r *SessionRepository) MarkPaid(ctx context.Context, id domain.ID, paymentKey string, paidAt time.Time) error {
	const q = `UPDATE face_sessions SET status=?, payment_key=?, paid_at=? WHERE id=?;`
	res, err := r.db.ExecContext(ctx, q, string(domain.StatusPaid), paymentKey, paidAt, id)
	return affectedOne(res, err)
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

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
