package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"qualifyr/internal/platform/config"
)

// New opens the application database. Request handlers and the webhook
// dispatcher write concurrently, so WAL plus a busy timeout keeps the
// single-writer lock from surfacing as errors.
func New(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.Path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
