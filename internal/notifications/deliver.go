package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hlsbot/internal/logging"
	"hlsbot/internal/services"
)

// Deliver sends text through n and absorbs every failure. It reports whether
// the sink accepted the update (ErrUnchanged counts as accepted).
func Deliver(ctx context.Context, logger *slog.Logger, n Notifier, text string) (ok bool) {
	if n == nil {
		return false
	}
	logger = logging.WithContext(ctx, logger)
	defer func() {
		if r := recover(); r != nil {
			ok = false
			logging.WarnWithContext(logger, "notifier panicked",
				"notifier_failed",
				logging.Error(services.Wrap(services.ErrNotifier, "notify", "update", "", fmt.Errorf("panic: %v", r))),
				logging.String(logging.FieldErrorHint, "inspect the chat transport"),
				logging.String(logging.FieldImpact, "the user may miss a status update"),
			)
		}
	}()

	err := n.Update(ctx, text)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrUnchanged):
		logger.Debug("notification unchanged")
		return true
	default:
		logging.WarnWithContext(logger, "notification delivery failed",
			"notifier_failed",
			logging.Error(services.Wrap(services.ErrNotifier, "notify", "update", "", err)),
			logging.String(logging.FieldErrorHint, "check chat transport connectivity"),
			logging.String(logging.FieldImpact, "the user may miss a status update"),
		)
		return false
	}
}
