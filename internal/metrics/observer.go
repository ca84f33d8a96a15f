package metrics

import (
	"context"

	"hlsbot/internal/queue"
	"hlsbot/internal/services"
	"hlsbot/internal/workflow"
)

// Observer updates job metrics from workflow events.
type Observer struct {
	queue *queue.Queue
}

// NewObserver samples queue depth from q after every event.
func NewObserver(q *queue.Queue) *Observer {
	return &Observer{queue: q}
}

// Observe implements workflow.Observer.
func (o *Observer) Observe(_ context.Context, ev workflow.Event) {
	JobsTotal.WithLabelValues(string(ev.Status)).Inc()
	switch ev.Status {
	case queue.StatusActive:
		JobActive.Set(1)
	case queue.StatusCompleted, queue.StatusFailed:
		JobActive.Set(0)
		JobDuration.WithLabelValues(string(ev.Status)).Observe(ev.Elapsed.Seconds())
	}
	if ev.Status == queue.StatusFailed {
		JobFailures.WithLabelValues(failureKind(ev.Err)).Inc()
	}
	if ev.StoreErr != nil {
		StoreWriteFailures.Inc()
	}
	if o.queue != nil {
		JobsPending.Set(float64(o.queue.PendingCount()))
	}
}

func failureKind(err error) string {
	switch services.Kind(err) {
	case services.ErrSourceUnavailable:
		return "source_unavailable"
	case services.ErrOutputDir:
		return "output_dir"
	case services.ErrTranscodeFailed:
		return "transcode"
	default:
		return "other"
	}
}
