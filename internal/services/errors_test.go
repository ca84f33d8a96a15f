package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"hlsbot/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.Wrap(services.ErrTranscodeFailed, "transcode", "ffmpeg", "encoder exited", base)
	if !errors.Is(err, services.ErrTranscodeFailed) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcode failed", "ffmpeg", "encoder exited", "exit status 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindClassifiesMarkers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"source", services.Wrap(services.ErrSourceUnavailable, "transcode", "resolve", "missing", nil), services.ErrSourceUnavailable},
		{"output", services.Wrap(services.ErrOutputDir, "transcode", "mkdir", "", errors.New("denied")), services.ErrOutputDir},
		{"store", services.Wrap(services.ErrPublicationStore, "publish", "insert", "", nil), services.ErrPublicationStore},
		{"nil marker defaults", services.Wrap(nil, "", "", "", nil), services.ErrTranscodeFailed},
		{"unclassified", errors.New("plain"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Kind(tt.err); got != tt.want {
				t.Fatalf("Kind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessageDropsStageNames(t *testing.T) {
	err := services.Wrap(services.ErrSourceUnavailable, "transcode", "resolve", "file not found on local server", errors.New("stat /x: no such file"))
	got := services.UserMessage(err)
	if got != "file not found on local server: stat /x: no such file" {
		t.Fatalf("unexpected user message %q", got)
	}
	if services.UserMessage(errors.New("plain")) != "plain" {
		t.Fatal("expected plain errors to pass through")
	}
	bare := services.Wrap(services.ErrOutputDir, "transcode", "mkdir", "", nil)
	if services.UserMessage(bare) != "output directory error" {
		t.Fatalf("unexpected bare message %q", services.UserMessage(bare))
	}
	if detail, ok := services.Details(bare); !ok || detail.Operation != "mkdir" {
		t.Fatalf("expected details, got %+v %v", detail, ok)
	}
}

type terseError struct{ full, short string }

func (e terseError) Error() string       { return e.full }
func (e terseError) UserMessage() string { return e.short }

func TestUserMessageBoundsCause(t *testing.T) {
	long := strings.Repeat("x", 5000)
	got := services.UserMessage(services.Wrap(services.ErrTranscodeFailed, "transcode", "ffmpeg", "FFmpeg failed", errors.New(long)))
	if n := utf8.RuneCountInString(got); n > len("FFmpeg failed: ")+services.MaxCauseRunes {
		t.Fatalf("expected cause to be truncated, got %d runes", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected truncation marker, got %q", got[len(got)-10:])
	}

	wrapped := fmt.Errorf("runner: %w", terseError{full: long, short: "disk full"})
	got = services.UserMessage(services.Wrap(services.ErrTranscodeFailed, "transcode", "ffmpeg", "FFmpeg failed", wrapped))
	if got != "FFmpeg failed: disk full" {
		t.Fatalf("expected user rendering of the cause, got %q", got)
	}
}
