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

var schema = []string{
	`CREATE TABLE IF NOT EXISTS injury_reports (
  report_id   CHAR(36)     NOT NULL PRIMARY KEY,
  user_id     VARCHAR(255) NOT NULL,
  image_key   VARCHAR(512) NOT NULL,
  image_url   VARCHAR(1024) NOT NULL,
  location    TEXT         NOT NULL,
  latitude    DOUBLE       NOT NULL,
  longitude   DOUBLE       NOT NULL,
  report_data LONGTEXT     NOT NULL,
  created_at  DATETIME(6)  NOT NULL,
  KEY idx_injury_reports_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS animals (
  id          BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
  image_key   VARCHAR(512) NOT NULL,
  image_url   VARCHAR(1024) NOT NULL,
  tags        VARCHAR(255) NULL,
  details     TEXT         NULL,
  uploaded_at DATETIME(6)  NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
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
