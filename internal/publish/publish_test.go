package publish_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hlsbot/internal/publish"
	"hlsbot/internal/queue"
	"hlsbot/internal/services"
	"hlsbot/internal/store"
)

type memoryRecorder struct {
	records []store.Record
	err     error
}

func (m *memoryRecorder) Insert(_ context.Context, rec store.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryRecorder) Close() error { return nil }

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base  string
		parts []string
		want  string
	}{
		{"http://localhost:3000/stream", []string{"abc", "master.m3u8"}, "http://localhost:3000/stream/abc/master.m3u8"},
		{"https://cdn.example.com/stream/", []string{"abc", "master.m3u8"}, "https://cdn.example.com/stream/abc/master.m3u8"},
		{"https://cdn.example.com", nil, "https://cdn.example.com"},
		{"", []string{"abc"}, "/abc"},
	}
	for _, tt := range tests {
		if got := publish.JoinURL(tt.base, tt.parts...); got != tt.want {
			t.Fatalf("JoinURL(%q, %v) = %q, want %q", tt.base, tt.parts, got, tt.want)
		}
	}
}

func TestPublishRecordsCompletion(t *testing.T) {
	rec := &memoryRecorder{}
	step := publish.New("http://localhost:3000/stream", rec, nil)
	job := queue.NewJob("AgADfile", "Cafe\u0301.mp4", 10, nil)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "master.m3u8"), []byte("#EXTM3U\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	url, err := step.Publish(context.Background(), job, dir)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := "http://localhost:3000/stream/" + job.ID + "/master.m3u8"
	if url != want {
		t.Fatalf("unexpected url %q", url)
	}
	if len(rec.records) != 1 {
		t.Fatalf("expected one record, got %d", len(rec.records))
	}
	got := rec.records[0]
	if got.FileID != "AgADfile" || got.URL != want || got.Status != store.StatusCompleted {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Name != "Caf\u00e9.mp4" {
		t.Fatalf("expected NFC-normalized name, got %q", got.Name)
	}
}

func TestPublishStoreFailureKeepsURL(t *testing.T) {
	step := publish.New("https://cdn/stream", &memoryRecorder{err: errors.New("connection refused")}, nil)
	job := queue.NewJob("f", "a.mp4", 1, nil)

	url, err := step.Publish(context.Background(), job, t.TempDir())
	if !errors.Is(err, services.ErrPublicationStore) {
		t.Fatalf("expected publication store error, got %v", err)
	}
	if url != "https://cdn/stream/"+job.ID+"/master.m3u8" {
		t.Fatalf("expected url despite store failure, got %q", url)
	}
}
