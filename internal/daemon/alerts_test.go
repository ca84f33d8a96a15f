package daemon

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hlsbot/internal/queue"
	"hlsbot/internal/services"
	"hlsbot/internal/workflow"
)

type recordingAlerter struct {
	texts []string
	tags  [][]string
	err   error
}

func (r *recordingAlerter) Alert(_ context.Context, text string, tags ...string) error {
	r.texts = append(r.texts, text)
	r.tags = append(r.tags, tags)
	return r.err
}

func TestAlertObserver(t *testing.T) {
	job := queue.NewJob("f", "clip.mp4", 1, nil)
	tests := []struct {
		name    string
		event   workflow.Event
		wantTxt string
		wantTag string
	}{
		{
			name: "failure",
			event: workflow.Event{Job: job, Status: queue.StatusFailed,
				Err: services.Wrap(services.ErrTranscodeFailed, "transcode", "ffmpeg", "FFmpeg failed", errors.New("exit status 1"))},
			wantTxt: "clip.mp4 failed: FFmpeg failed: exit status 1",
			wantTag: "warning",
		},
		{
			name:    "store failure",
			event:   workflow.Event{Job: job, Status: queue.StatusCompleted, StoreErr: errors.New("db down")},
			wantTxt: "clip.mp4 published but not recorded: db down",
			wantTag: "floppy_disk",
		},
		{
			name:  "success",
			event: workflow.Event{Job: job, Status: queue.StatusCompleted},
		},
		{
			name:  "pending",
			event: workflow.Event{Job: job, Status: queue.StatusPending, Position: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &recordingAlerter{}
			newAlertObserver(target, nil).Observe(context.Background(), tt.event)
			if tt.wantTxt == "" {
				if len(target.texts) != 0 {
					t.Fatalf("expected no alert, got %q", target.texts)
				}
				return
			}
			if len(target.texts) != 1 || target.texts[0] != tt.wantTxt {
				t.Fatalf("unexpected alerts %q", target.texts)
			}
			if strings.Join(target.tags[0], ",") != tt.wantTag {
				t.Fatalf("unexpected tags %v", target.tags[0])
			}
		})
	}
}

func TestAlertObserverSwallowsDeliveryErrors(t *testing.T) {
	target := &recordingAlerter{err: errors.New("ntfy unreachable")}
	ev := workflow.Event{Job: queue.NewJob("f", "clip.mp4", 1, nil), Status: queue.StatusFailed, Err: errors.New("boom")}
	newAlertObserver(target, nil).Observe(context.Background(), ev)
	if len(target.texts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(target.texts))
	}
}
