package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLite records completions in a local database file.
type SQLite struct {
	db    *sql.DB
	path  string
	table string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path, table string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &SQLite{db: db, path: path, table: table}
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	telegram_file_id TEXT NOT NULL,
	original_name TEXT NOT NULL,
	hls_url TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TEXT NOT NULL
)`, quoteIdent(table))
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *SQLite) Path() string {
	return s.path
}

// Insert implements Recorder.
func (s *SQLite) Insert(ctx context.Context, rec Record) error {
	rec = rec.normalized()
	query := fmt.Sprintf(`INSERT INTO %s (telegram_file_id, original_name, hls_url, status, created_at) VALUES (?, ?, ?, ?, ?)`, quoteIdent(s.table))
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, rec.FileID, rec.Name, rec.URL, rec.Status, rec.CreatedAt.Format(time.RFC3339Nano))
		return err
	})
}

// Recent returns up to limit records, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT telegram_file_id, original_name, hls_url, status, created_at FROM %s ORDER BY id DESC LIMIT ?`, quoteIdent(s.table))
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			created string
		)
		if err := rows.Scan(&rec.FileID, &rec.Name, &rec.URL, &rec.Status, &created); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close implements Recorder.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
