package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hlsbot/internal/logging"
	"hlsbot/internal/queue"
)

// Driver turns one job into an output package directory.
type Driver interface {
	Run(ctx context.Context, job *queue.Job) (string, error)
}

// Publisher computes the public URL for a finished package and records it.
// A non-nil error reports a failed store write; the URL is still valid.
type Publisher interface {
	Publish(ctx context.Context, job *queue.Job, outputDir string) (string, error)
}

// Event describes one job lifecycle transition.
type Event struct {
	Job      *queue.Job
	Status   queue.Status
	Position int
	URL      string
	Err      error
	StoreErr error
	Elapsed  time.Duration
}

// Observer receives lifecycle events. Implementations must not block for long;
// they run on the dispatch goroutine.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// Option configures a Manager.
type Option func(*Manager)

// WithObserver registers an observer for lifecycle events.
func WithObserver(obs Observer) Option {
	return func(m *Manager) {
		if obs != nil {
			m.observers = append(m.observers, obs)
		}
	}
}

// Manager coordinates queue processing.
type Manager struct {
	queue     *queue.Queue
	driver    Driver
	publisher Publisher
	logger    *slog.Logger
	observers []Observer

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
	lastJob string
}

// NewManager constructs a workflow manager.
func NewManager(q *queue.Queue, driver Driver, publisher Publisher, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		queue:     q,
		driver:    driver,
		publisher: publisher,
		logger:    logging.NewComponentLogger(logger, "workflow"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Queue exposes the managed queue.
func (m *Manager) Queue() *queue.Queue {
	return m.queue
}

// NextPosition returns the position the next submitted job would receive.
func (m *Manager) NextPosition() int {
	return m.queue.NextPosition()
}
