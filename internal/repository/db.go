package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path        string
	BusyTimeout time.Duration
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS processed_files (
	path          TEXT PRIMARY KEY,
	content_hash  BLOB NOT NULL,
	success       INTEGER NOT NULL,
	error_kind    TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	analysis_type TEXT NOT NULL DEFAULT '',
	values_found  INTEGER NOT NULL DEFAULT 0,
	processed_at  TIMESTAMP NOT NULL
);`

// Open opens (creating if needed) the sqlite ledger database and applies the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cfg.Path, cfg.BusyTimeout.Milliseconds())
	logger.Info("repository.open", "path", cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("repository.open_failed", "path", cfg.Path, "error", err)
		return nil, err
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		_ = db.Close()
		logger.Error("repository.migrate_failed", "path", cfg.Path, "error", err)
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return db, nil
}

// Close closes the database handle gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("repository.close_failed", "error", err)
	}
}

// HealthCheck pings the database to catch path or permission issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
