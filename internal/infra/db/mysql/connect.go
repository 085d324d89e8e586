package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
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
  id          VARCHAR(36)  NOT NULL PRIMARY KEY,
  result_json JSON         NOT NULL,
  fallback    TINYINT(1)   NOT NULL DEFAULT 0,
  status      VARCHAR(16)  NOT NULL,
  image_key   VARCHAR(255) NOT NULL DEFAULT '',
  order_id    VARCHAR(64)  NOT NULL DEFAULT '',
  amount      BIGINT       NOT NULL DEFAULT 0,
  payment_key VARCHAR(200) NOT NULL DEFAULT '',
  created_at  DATETIME(3)  NOT NULL,
  paid_at     DATETIME(3)  NULL,
  KEY idx_face_sessions_order (order_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

// Migrate creates the sessions table when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
