// Package tracker mirrors job lifecycle state into Redis hashes so external
// tooling can look up a job by ID.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"hlsbot/internal/config"
	"hlsbot/internal/logging"
	"hlsbot/internal/queue"
	"hlsbot/internal/services"
	"hlsbot/internal/workflow"
)

// Client is the subset of the Redis API the tracker needs.
type Client interface {
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Tracker records job status as Redis hashes keyed "job:<id>".
type Tracker struct {
	client Client
	ttl    time.Duration
	logger *slog.Logger
	closer func() error
}

// New wraps client. Hashes expire ttl after their last write.
func New(client Client, ttl time.Duration, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{client: client, ttl: ttl, logger: logging.NewComponentLogger(logger, "tracker")}
}

// Connect dials the configured Redis server and verifies it responds.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Tracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	t := New(client, cfg.RedisTTL(), logger)
	t.closer = client.Close
	return t, nil
}

// Key returns the hash key for a job.
func Key(jobID string) string {
	return "job:" + jobID
}

// Observe implements workflow.Observer.
func (t *Tracker) Observe(ctx context.Context, ev workflow.Event) {
	if ev.Job == nil {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	values := []any{"status", string(ev.Status)}
	switch ev.Status {
	case queue.StatusPending:
		values = append(values,
			"file_name", ev.Job.FileName,
			"file_id", ev.Job.FileID,
			"position", ev.Position,
			"accepted_at", now,
		)
	case queue.StatusActive:
		values = append(values, "started_at", now)
	case queue.StatusCompleted:
		values = append(values, "completed_at", now, "hls_url", ev.URL)
	case queue.StatusFailed:
		values = append(values, "completed_at", now, "error", services.UserMessage(ev.Err))
	}

	key := Key(ev.Job.ID)
	if err := t.client.HSet(ctx, key, values...).Err(); err != nil {
		t.warn(ev.Job.ID, err)
		return
	}
	if t.ttl > 0 {
		if err := t.client.Expire(ctx, key, t.ttl).Err(); err != nil {
			t.warn(ev.Job.ID, err)
		}
	}
}

// Lookup returns the stored fields for a job. ok is false when the job is
// unknown or has expired.
func (t *Tracker) Lookup(ctx context.Context, jobID string) (map[string]string, bool, error) {
	fields, err := t.client.HGetAll(ctx, Key(jobID)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lookup job %s: %w", jobID, err)
	}
	return fields, len(fields) > 0, nil
}

// Close releases the Redis connection when the tracker owns it.
func (t *Tracker) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer()
}

func (t *Tracker) warn(jobID string, err error) {
	logging.WarnWithContext(t.logger, "job status not tracked", "tracker_write_failed",
		logging.String(logging.FieldJobID, jobID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check redis connectivity"),
	)
}
