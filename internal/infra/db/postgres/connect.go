package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS face_sessions (
  id          VARCHAR(36)  PRIMARY KEY,
  result_json JSONB        NOT NULL,
  fallback    BOOLEAN      NOT NULL DEFAULT FALSE,
  status      VARCHAR(16)  NOT NULL,
  image_key   VARCHAR(255) NOT NULL DEFAULT '',
  order_id    VARCHAR(64)  NOT NULL DEFAULT '',
  amount      BIGINT       NOT NULL DEFAULT 0,
  payment_key VARCHAR(200) NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ  NOT NULL,
  paid_at     TIMESTAMPTZ  NULL
);
CREATE INDEX IF NOT EXISTS idx_face_sessions_order ON face_sessions (order_id);`

// Migrate creates the sessions table when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
