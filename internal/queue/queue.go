package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue closed")

// Queue is the process-wide job queue. The zero value is not usable; call New.
type Queue struct {
	mu        sync.Mutex
	pending   []*Job
	active    *Job
	accepted  int64
	completed int64
	failed    int64
	closed    bool
	wake      chan struct{}
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends job to the pending sequence and returns its 1-based position
// among unfinished jobs (the active job counts as position 1). It never blocks.
func (q *Queue) Enqueue(job *Job) (int, error) {
	if job == nil {
		return 0, errors.New("enqueue: nil job")
	}
	if job.ID == "" {
		return 0, errors.New("enqueue: job has no identifier")
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, ErrClosed
	}
	q.pending = append(q.pending, job)
	q.accepted++
	position := len(q.pending)
	if q.active != nil {
		position++
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return position, nil
}

// PendingCount returns the number of jobs waiting to run.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// NextPosition returns the position a job enqueued now would receive.
func (q *Queue) NextPosition() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	position := len(q.pending) + 1
	if q.active != nil {
		position++
	}
	return position
}

// Active returns the running job, if any.
func (q *Queue) Active() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active, q.active != nil
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := Stats{
		Pending:   len(q.pending),
		Accepted:  q.accepted,
		Completed: q.completed,
		Failed:    q.failed,
	}
	if q.active != nil {
		stats.Active = q.active.ID
	}
	return stats
}

// Next blocks until a pending job is available, marks it active and returns
// it. It fails if another job is still active, so callers must Finish each job
// before asking for the next one.
func (q *Queue) Next(ctx context.Context) (*Job, error) {
	for {
		q.mu.Lock()
		if err := ctx.Err(); err != nil {
			q.mu.Unlock()
			return nil, err
		}
		if q.active != nil {
			id := q.active.ID
			q.mu.Unlock()
			return nil, fmt.Errorf("next: job %s is still active", id)
		}
		if len(q.pending) > 0 {
			job := q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
			q.active = job
			q.mu.Unlock()
			return job, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		}
	}
}

// Finish records the terminal status of the active job and clears it.
func (q *Queue) Finish(job *Job, status Status) error {
	if !status.IsTerminal() {
		return fmt.Errorf("finish: %q is not a terminal status", status)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active == nil || job == nil || q.active.ID != job.ID {
		return errors.New("finish: job is not active")
	}
	q.active = nil
	if status == StatusCompleted {
		q.completed++
	} else {
		q.failed++
	}
	return nil
}

// Close rejects further Enqueue calls and returns the jobs that never started.
func (q *Queue) Close() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	dropped := q.pending
	q.pending = nil
	return dropped
}
