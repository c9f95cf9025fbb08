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

var schema = []string{
	`CREATE TABLE IF NOT EXISTS injury_reports (
  report_id   UUID PRIMARY KEY,
  user_id     VARCHAR(255) NOT NULL,
  image_key   TEXT NOT NULL,
  image_url   TEXT NOT NULL,
  location    TEXT NOT NULL,
  latitude    DOUBLE PRECISION NOT NULL,
  longitude   DOUBLE PRECISION NOT NULL,
  report_data TEXT NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_injury_reports_created ON injury_reports (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS animals (
  id          BIGSERIAL PRIMARY KEY,
  image_key   TEXT NOT NULL,
  image_url   TEXT NOT NULL,
  tags        VARCHAR(255),
  details     TEXT,
  uploaded_at TIMESTAMPTZ NOT NULL
)`,
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
