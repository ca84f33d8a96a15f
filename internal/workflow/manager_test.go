package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hlsbot/internal/queue"
	"hlsbot/internal/services"
	"hlsbot/internal/workflow"
)

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingNotifier) Update(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.texts...)
}

type stubDriver struct {
	mu       sync.Mutex
	active   int32
	overlap  atomic.Bool
	order    []string
	failFor  map[string]error
	panicFor map[string]bool
	delay    time.Duration
	progress bool
}

func (d *stubDriver) Run(ctx context.Context, job *queue.Job) (string, error) {
	if atomic.AddInt32(&d.active, 1) > 1 {
		d.overlap.Store(true)
	}
	defer atomic.AddInt32(&d.active, -1)

	d.mu.Lock()
	d.order = append(d.order, job.FileName)
	d.mu.Unlock()

	if d.progress {
		_ = job.Notifier.Update(ctx, "⚙️ Transcoding: 50% done")
	}
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.panicFor[job.FileName] {
		panic("boom")
	}
	if err := d.failFor[job.FileName]; err != nil {
		return "", err
	}
	return "/out/" + job.ID, nil
}

func (d *stubDriver) runOrder() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.order...)
}

type stubPublisher struct {
	base     string
	storeErr error
}

func (p stubPublisher) Publish(_ context.Context, job *queue.Job, _ string) (string, error) {
	return p.base + "/" + job.ID + "/master.m3u8", p.storeErr
}

type eventLog struct {
	mu     sync.Mutex
	events []workflow.Event
}

func (l *eventLog) Observe(_ context.Context, ev workflow.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) terminal() []workflow.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []workflow.Event
	for _, ev := range l.events {
		if ev.Status.IsTerminal() {
			out = append(out, ev)
		}
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func startManager(t *testing.T, driver workflow.Driver, publisher workflow.Publisher, opts ...workflow.Option) *workflow.Manager {
	t.Helper()
	m := workflow.NewManager(queue.New(), driver, publisher, nil, opts...)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(m.Stop)
	return m
}

func TestJobsFinishInEnqueueOrderOneAtATime(t *testing.T) {
	driver := &stubDriver{delay: 5 * time.Millisecond}
	events := &eventLog{}
	m := startManager(t, driver, stubPublisher{base: "http://x/stream"}, workflow.WithObserver(events))

	var names []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("clip-%d.mp4", i)
		names = append(names, name)
		if _, err := m.Submit(context.Background(), queue.NewJob("file", name, 1, nil)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	waitFor(t, func() bool { return len(events.terminal()) == len(names) })

	if driver.overlap.Load() {
		t.Fatal("two jobs were active at the same time")
	}
	if got := driver.runOrder(); strings.Join(got, ",") != strings.Join(names, ",") {
		t.Fatalf("unexpected run order %v", got)
	}
	for i, ev := range events.terminal() {
		if ev.Job.FileName != names[i] || ev.Status != queue.StatusCompleted {
			t.Fatalf("event %d: unexpected %s %s", i, ev.Job.FileName, ev.Status)
		}
	}
	stats := m.Status().Queue
	if stats.Completed != int64(len(names)) || stats.Pending != 0 || stats.Active != "" {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestFailureDoesNotHaltQueue(t *testing.T) {
	driver := &stubDriver{
		failFor:  map[string]error{"bad.mp4": services.Wrap(services.ErrTranscodeFailed, "transcode", "ffmpeg", "FFmpeg failed", errors.New("exit status 1"))},
		panicFor: map[string]bool{"panic.mp4": true},
	}
	events := &eventLog{}
	m := startManager(t, driver, stubPublisher{base: "http://x/stream"}, workflow.WithObserver(events))

	bad := &recordingNotifier{}
	good := &recordingNotifier{}
	_, _ = m.Submit(context.Background(), queue.NewJob("a", "bad.mp4", 1, bad))
	_, _ = m.Submit(context.Background(), queue.NewJob("b", "panic.mp4", 1, nil))
	goodJob := queue.NewJob("c", "good.mp4", 1, good)
	_, _ = m.Submit(context.Background(), goodJob)

	waitFor(t, func() bool { return len(events.terminal()) == 3 })

	if got := bad.messages(); len(got) != 1 || got[0] != "❌ Error processing video: FFmpeg failed: exit status 1" {
		t.Fatalf("unexpected failure notification %q", got)
	}
	want := "✅ Processing Complete!\n\n🔗 HLS Link:\nhttp://x/stream/" + goodJob.ID + "/master.m3u8"
	if got := good.messages(); len(got) != 1 || got[0] != want {
		t.Fatalf("unexpected success notification %q", got)
	}
	terminal := events.terminal()
	if terminal[0].Status != queue.StatusFailed || terminal[1].Status != queue.StatusFailed || terminal[2].Status != queue.StatusCompleted {
		t.Fatalf("unexpected terminal statuses: %s %s %s", terminal[0].Status, terminal[1].Status, terminal[2].Status)
	}
	if m.Status().LastError == "" {
		t.Fatal("expected last error to be recorded")
	}
}

func TestStoreFailureStillReportsSuccess(t *testing.T) {
	storeErr := services.Wrap(services.ErrPublicationStore, "publish", "insert", "", errors.New("connection refused"))
	events := &eventLog{}
	m := startManager(t, &stubDriver{}, stubPublisher{base: "https://cdn/stream", storeErr: storeErr}, workflow.WithObserver(events))

	notifier := &recordingNotifier{}
	job := queue.NewJob("file", "a.mp4", 1, notifier)
	_, _ = m.Submit(context.Background(), job)
	waitFor(t, func() bool { return len(events.terminal()) == 1 })

	ev := events.terminal()[0]
	if ev.Status != queue.StatusCompleted || !errors.Is(ev.StoreErr, services.ErrPublicationStore) {
		t.Fatalf("unexpected event %+v", ev)
	}
	want := workflow.SuccessMessage("https://cdn/stream/" + job.ID + "/master.m3u8")
	if got := notifier.messages(); len(got) != 1 || got[0] != want {
		t.Fatalf("unexpected notification %q", got)
	}
}

func TestProgressPrecedesTerminalMessage(t *testing.T) {
	events := &eventLog{}
	m := startManager(t, &stubDriver{progress: true}, stubPublisher{base: "http://x"}, workflow.WithObserver(events))
	notifier := &recordingNotifier{}
	_, _ = m.Submit(context.Background(), queue.NewJob("file", "a.mp4", 1, notifier))
	waitFor(t, func() bool { return len(events.terminal()) == 1 })

	got := notifier.messages()
	if len(got) != 2 || !strings.Contains(got[0], "50% done") || !strings.HasPrefix(got[1], "✅") {
		t.Fatalf("unexpected ordering %q", got)
	}
}

func TestDuplicateHandlesProduceIndependentJobs(t *testing.T) {
	events := &eventLog{}
	m := startManager(t, &stubDriver{}, stubPublisher{base: "http://x"}, workflow.WithObserver(events))
	first := queue.NewJob("same-handle", "a.mp4", 1, nil)
	second := queue.NewJob("same-handle", "a.mp4", 1, nil)
	_, _ = m.Submit(context.Background(), first)
	_, _ = m.Submit(context.Background(), second)
	waitFor(t, func() bool { return len(events.terminal()) == 2 })

	terminal := events.terminal()
	if terminal[0].Job.ID == terminal[1].Job.ID || terminal[0].URL == terminal[1].URL {
		t.Fatalf("expected distinct jobs, got %q and %q", terminal[0].URL, terminal[1].URL)
	}
}

func TestSubmitReportsPositionAndPendingEvent(t *testing.T) {
	events := &eventLog{}
	m := workflow.NewManager(queue.New(), &stubDriver{}, stubPublisher{}, nil, workflow.WithObserver(events))
	for want := 1; want <= 3; want++ {
		position, err := m.Submit(context.Background(), queue.NewJob("f", "a.mp4", 1, nil))
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if position != want {
			t.Fatalf("expected position %d, got %d", want, position)
		}
	}
	if len(events.events) != 3 || events.events[0].Status != queue.StatusPending || events.events[2].Position != 3 {
		t.Fatalf("unexpected events %+v", events.events)
	}
}

func TestStartTwiceFails(t *testing.T) {
	m := startManager(t, &stubDriver{}, stubPublisher{})
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
	if !m.Status().Running {
		t.Fatal("expected running status")
	}
	m.Stop()
	if m.Status().Running {
		t.Fatal("expected stopped status")
	}
}

func TestStartRequiresCollaborators(t *testing.T) {
	m := workflow.NewManager(queue.New(), nil, stubPublisher{}, nil)
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected error without a driver")
	}
}
