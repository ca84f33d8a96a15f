package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"hlsbot/internal/queue"
	"hlsbot/internal/services"
	"hlsbot/internal/workflow"
)

type fakeRedis struct {
	hashes  map[string]map[string]string
	expires map[string]time.Duration
	err     error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{hashes: map[string]map[string]string{}, expires: map[string]time.Duration{}}
}

func (f *fakeRedis) HSet(_ context.Context, key string, values ...any) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	hash := f.hashes[key]
	if hash == nil {
		hash = map[string]string{}
		f.hashes[key] = hash
	}
	for i := 0; i+1 < len(values); i += 2 {
		hash[fmt.Sprint(values[i])] = fmt.Sprint(values[i+1])
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (f *fakeRedis) HGetAll(_ context.Context, key string) *redis.MapStringStringCmd {
	return redis.NewMapStringStringResult(f.hashes[key], f.err)
}

func (f *fakeRedis) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expires[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func TestObserveTracksLifecycle(t *testing.T) {
	client := newFakeRedis()
	tr := New(client, time.Hour, nil)
	job := queue.NewJob("AgAD", "clip.mp4", 1, nil)
	ctx := context.Background()

	tr.Observe(ctx, workflow.Event{Job: job, Status: queue.StatusPending, Position: 2})
	tr.Observe(ctx, workflow.Event{Job: job, Status: queue.StatusActive})
	tr.Observe(ctx, workflow.Event{Job: job, Status: queue.StatusCompleted, URL: "http://x/stream/" + job.ID + "/master.m3u8"})

	fields, ok, err := tr.Lookup(ctx, job.ID)
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if fields["status"] != "completed" || fields["file_name"] != "clip.mp4" || fields["position"] != "2" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if fields["started_at"] == "" || fields["completed_at"] == "" || fields["hls_url"] == "" {
		t.Fatalf("expected timestamps and url, got %v", fields)
	}
	if client.expires[Key(job.ID)] != time.Hour {
		t.Fatalf("expected ttl to be applied, got %v", client.expires)
	}
}

func TestObserveRecordsFailureMessage(t *testing.T) {
	client := newFakeRedis()
	tr := New(client, 0, nil)
	job := queue.NewJob("AgAD", "clip.mp4", 1, nil)
	cause := services.Wrap(services.ErrTranscodeFailed, "transcode", "ffmpeg", "FFmpeg failed", errors.New("exit status 1"))

	tr.Observe(context.Background(), workflow.Event{Job: job, Status: queue.StatusFailed, Err: cause})

	if got := client.hashes[Key(job.ID)]["error"]; got != "FFmpeg failed: exit status 1" {
		t.Fatalf("unexpected error field %q", got)
	}
	if _, ok := client.expires[Key(job.ID)]; ok {
		t.Fatal("expected no expiry with zero ttl")
	}
}

func TestObserveSwallowsRedisErrors(t *testing.T) {
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	tr := New(client, time.Minute, nil)
	tr.Observe(context.Background(), workflow.Event{Job: queue.NewJob("a", "b", 1, nil), Status: queue.StatusActive})

	if _, _, err := tr.Lookup(context.Background(), "missing"); err == nil {
		t.Fatal("expected lookup error")
	}
}

func TestLookupUnknownJob(t *testing.T) {
	tr := New(newFakeRedis(), time.Minute, nil)
	if _, ok, err := tr.Lookup(context.Background(), "nope"); ok || err != nil {
		t.Fatalf("expected unknown job, ok=%v err=%v", ok, err)
	}
}
