package notifications

import (
	"context"
	"errors"
	"sync"
)

// ErrUnchanged reports that an update was a no-op because the sink already
// shows the same text. It is never logged as a failure.
var ErrUnchanged = errors.New("notification unchanged")

// Notifier receives status text for a single job.
type Notifier interface {
	Update(ctx context.Context, text string) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, text string) error

// Update calls f.
func (f Func) Update(ctx context.Context, text string) error {
	if f == nil {
		return nil
	}
	return f(ctx, text)
}

// Nop discards every update.
type Nop struct{}

// Update implements Notifier.
func (Nop) Update(context.Context, string) error { return nil }

// Dedup suppresses consecutive identical updates.
type Dedup struct {
	mu   sync.Mutex
	next Notifier
	last string
	sent bool
}

// NewDedup wraps next.
func NewDedup(next Notifier) *Dedup {
	if next == nil {
		next = Nop{}
	}
	return &Dedup{next: next}
}

// Update forwards text unless it matches the last successfully delivered text.
func (d *Dedup) Update(ctx context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sent && d.last == text {
		return ErrUnchanged
	}
	if err := d.next.Update(ctx, text); err != nil {
		return err
	}
	d.last = text
	d.sent = true
	return nil
}
