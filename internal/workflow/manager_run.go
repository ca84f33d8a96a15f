package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hlsbot/internal/logging"
	"hlsbot/internal/notifications"
	"hlsbot/internal/queue"
	"hlsbot/internal/services"
)

// Submit enqueues job and returns its position. It never blocks.
func (m *Manager) Submit(ctx context.Context, job *queue.Job) (int, error) {
	position, err := m.queue.Enqueue(job)
	if err != nil {
		return 0, err
	}
	m.logger.Info("job accepted",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("file_name", job.FileName),
		logging.Int64("file_size", job.FileSize),
		logging.Int("position", position),
	)
	m.emit(ctx, Event{Job: job, Status: queue.StatusPending, Position: position})
	return position, nil
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if m.queue == nil || m.driver == nil || m.publisher == nil {
		return errors.New("workflow not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.done = make(chan struct{})
	go m.run(runCtx, m.done)
	return nil
}

// Stop terminates background processing and waits for the active job to
// return. Cancelling interrupts the running ffmpeg invocation.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	<-done
}

// Wait blocks until the dispatch loop exits.
func (m *Manager) Wait() {
	m.mu.RLock()
	done := m.done
	m.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for ctx.Err() == nil {
		job, err := m.queue.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			logging.ErrorWithContext(m.logger, "failed to take next job", "queue_next_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "a job was not finished before dispatch"),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		m.processJob(ctx, job)
	}
}

func (m *Manager) processJob(ctx context.Context, job *queue.Job) {
	jobCtx := services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(jobCtx, m.logger)
	started := time.Now()
	m.setLastJob(job.ID)
	m.emit(jobCtx, Event{Job: job, Status: queue.StatusActive})
	logger.Info("job started", logging.String("file_name", job.FileName))

	url, storeErr, err := m.execute(jobCtx, job)
	elapsed := time.Since(started)

	status := queue.StatusCompleted
	text := SuccessMessage(url)
	if err != nil {
		status = queue.StatusFailed
		text = FailureMessage(err)
		m.setLastError(err)
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(err),
			logging.String("error_kind", errorKind(err)),
			logging.Duration("elapsed", elapsed),
		)
	} else {
		logger.Info("job completed",
			logging.String("hls_url", url),
			logging.Duration("elapsed", elapsed),
		)
	}

	if finishErr := m.queue.Finish(job, status); finishErr != nil {
		logging.ErrorWithContext(logger, "failed to finish job", "queue_finish_failed", logging.Error(finishErr))
	}
	notifications.Deliver(jobCtx, logger, job.Notifier, text)
	m.emit(jobCtx, Event{Job: job, Status: status, URL: url, Err: err, StoreErr: storeErr, Elapsed: elapsed})
}

// execute runs the driver and publisher, converting panics into failures so
// the loop keeps going.
func (m *Manager) execute(ctx context.Context, job *queue.Job) (url string, storeErr error, err error) {
	defer func() {
		if r := recover(); r != nil {
			url, storeErr = "", nil
			err = services.Wrap(services.ErrTranscodeFailed, "workflow", "execute", "Internal error", fmt.Errorf("panic: %v", r))
		}
	}()

	outputDir, err := m.driver.Run(ctx, job)
	if err != nil {
		return "", nil, err
	}
	url, storeErr = m.publisher.Publish(ctx, job, outputDir)
	return url, storeErr, nil
}

func (m *Manager) emit(ctx context.Context, ev Event) {
	for _, obs := range m.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Warn("observer panicked",
						logging.Any("panic", r),
						logging.String(logging.FieldEventType, "observer_panic"),
					)
				}
			}()
			obs.Observe(ctx, ev)
		}()
	}
}

func errorKind(err error) string {
	if kind := services.Kind(err); kind != nil {
		return kind.Error()
	}
	return "unclassified"
}
