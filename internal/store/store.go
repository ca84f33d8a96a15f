package store

import (
	"context"
	"fmt"
	"time"

	"hlsbot/internal/config"
)

// StatusCompleted is the only status the publication step records.
const StatusCompleted = "completed"

// Record is one published package.
type Record struct {
	FileID    string
	Name      string
	URL       string
	Status    string
	CreatedAt time.Time
}

// Recorder inserts completion records.
type Recorder interface {
	Insert(ctx context.Context, rec Record) error
	Close() error
}

// Nop discards records.
type Nop struct{}

// Insert implements Recorder.
func (Nop) Insert(context.Context, Record) error { return nil }

// Close implements Recorder.
func (Nop) Close() error { return nil }

// Open constructs the recorder selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (Recorder, error) {
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		s, err := OpenSQLite(ctx, cfg.Store.SQLitePath, cfg.Store.Table)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorePostgres:
		p, err := OpenPostgres(ctx, cfg.Store.PostgresDSN, cfg.Store.Table)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.StoreSupabase:
		return NewSupabase(cfg.Store.SupabaseURL, cfg.Store.SupabaseKey, cfg.Store.Table, nil), nil
	case config.StoreNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func (r Record) normalized() Record {
	if r.Status == "" {
		r.Status = StatusCompleted
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r
}
