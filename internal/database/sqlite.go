package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Config for the sqlite database
type Config struct {
	Path          string
	MaxOpenConns  int
	BusyTimeoutMS int
}

// Open opens (or creates) the sqlite database file and verifies the
// connection. WAL mode keeps readers unblocked while a write is in flight;
// the busy timeout makes concurrent writers queue instead of failing.
func Open(cfg Config) (*sqlx.DB, error) {
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.BusyTimeoutMS <= 0 {
		cfg.BusyTimeoutMS = 5000
	}

	dsn := fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on",
		cfg.Path, cfg.BusyTimeoutMS,
	)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Printf("✅ Connected to sqlite database at %s", cfg.Path)
	return db, nil
}
