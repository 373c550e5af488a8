package repository

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// LedgerEntry is one processed-file record.
type LedgerEntry struct {
	Path         string
	ContentHash  []byte
	Success      bool
	ErrorKind    string
	Model        string
	AnalysisType string
	ValuesFound  int
	ProcessedAt  time.Time
}

type LedgerRepository interface {
	Get(ctx context.Context, path string) (*LedgerEntry, error)
	// Done reports whether path was processed successfully with the same content.
	Done(ctx context.Context, path string, hash []byte) (bool, error)
	Record(ctx context.Context, e LedgerEntry) error
	List(ctx context.Context) ([]LedgerEntry, error)
}

type ledgerRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewLedgerRepository(db *sql.DB, logger *slog.Logger) LedgerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ledgerRepo{db: db, logger: logger}
}

func (r *ledgerRepo) Get(ctx context.Context, path string) (*LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT path, content_hash, success, error_kind, model, analysis_type, values_found, processed_at
		FROM processed_files WHERE path = ?`, path)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("repository.ledger.get_failed", "path", path, "error", err)
		return nil, err
	}
	return e, nil
}

func (r *ledgerRepo) Done(ctx context.Context, path string, hash []byte) (bool, error) {
	e, err := r.Get(ctx, path)
	if err != nil || e == nil {
		return false, err
	}
	return e.Success && bytes.Equal(e.ContentHash, hash), nil
}

func (r *ledgerRepo) Record(ctx context.Context, e LedgerEntry) error {
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO processed_files (path, content_hash, success, error_kind, model, analysis_type, values_found, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			success = excluded.success,
			error_kind = excluded.error_kind,
			model = excluded.model,
			analysis_type = excluded.analysis_type,
			values_found = excluded.values_found,
			processed_at = excluded.processed_at`,
		e.Path, e.ContentHash, e.Success, e.ErrorKind, e.Model, e.AnalysisType, e.ValuesFound, e.ProcessedAt)
	if err != nil {
		r.logger.Error("repository.ledger.record_failed", "path", e.Path, "error", err)
	}
	return err
}

func (r *ledgerRepo) List(ctx context.Context) ([]LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT path, content_hash, success, error_kind, model, analysis_type, values_found, processed_at
		FROM processed_files ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*LedgerEntry, error) {
	var e LedgerEntry
	if err := s.Scan(&e.Path, &e.ContentHash, &e.Success, &e.ErrorKind, &e.Model, &e.AnalysisType, &e.ValuesFound, &e.ProcessedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
