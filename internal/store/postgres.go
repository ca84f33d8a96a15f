package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres records completions in a PostgreSQL table.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// OpenPostgres connects to dsn and ensures the table exists.
func OpenPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	p := &Postgres{pool: pool, table: pgx.Identifier{table}.Sanitize()}
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	telegram_file_id TEXT NOT NULL,
	original_name TEXT NOT NULL,
	hls_url TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, p.table)
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return p, nil
}

// Insert implements Recorder.
func (p *Postgres) Insert(ctx context.Context, rec Record) error {
	rec = rec.normalized()
	query := fmt.Sprintf(`INSERT INTO %s (telegram_file_id, original_name, hls_url, status, created_at) VALUES ($1, $2, $3, $4, $5)`, p.table)
	if _, err := p.pool.Exec(ctx, query, rec.FileID, rec.Name, rec.URL, rec.Status, rec.CreatedAt); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Close implements Recorder.
func (p *Postgres) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}
