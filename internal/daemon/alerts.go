package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"hlsbot/internal/logging"
	"hlsbot/internal/notifications"
	"hlsbot/internal/queue"
	"hlsbot/internal/services"
	"hlsbot/internal/workflow"
)

type alerter interface {
	Alert(ctx context.Context, text string, tags ...string) error
}

// alertObserver posts operator alerts for failed jobs and lost completion
// records.
type alertObserver struct {
	target alerter
	logger *slog.Logger
}

func newAlertObserver(target alerter, logger *slog.Logger) *alertObserver {
	return &alertObserver{target: target, logger: logger}
}

func (a *alertObserver) Observe(ctx context.Context, ev workflow.Event) {
	if ev.Job == nil {
		return
	}
	var text string
	var tags []string
	switch {
	case ev.Status == queue.StatusFailed:
		text = fmt.Sprintf("%s failed: %s", ev.Job.FileName, services.UserMessage(ev.Err))
		tags = []string{"warning"}
	case ev.StoreErr != nil:
		text = fmt.Sprintf("%s published but not recorded: %v", ev.Job.FileName, ev.StoreErr)
		tags = []string{"floppy_disk"}
	default:
		return
	}
	if err := a.target.Alert(ctx, text, tags...); err != nil {
		logging.WarnWithContext(a.logger, "operator alert failed", "alert_failed",
			logging.String(logging.FieldJobID, ev.Job.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

var _ alerter = (*notifications.Ntfy)(nil)
