package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"hlsbot/internal/config"
	"hlsbot/internal/fileserver"
	"hlsbot/internal/logging"
	"hlsbot/internal/metrics"
	"hlsbot/internal/notifications"
	"hlsbot/internal/publish"
	"hlsbot/internal/queue"
	"hlsbot/internal/store"
	"hlsbot/internal/telegram"
	"hlsbot/internal/tracker"
	"hlsbot/internal/transcode"
	"hlsbot/internal/workflow"
)

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	api        telegram.API
	driverOpts []transcode.Option
}

// WithTelegramAPI skips connecting to the Bot API server and uses api.
func WithTelegramAPI(api telegram.API) BuildOption {
	return func(o *buildOptions) { o.api = api }
}

// WithDriverOptions forwards options to the transcode driver.
func WithDriverOptions(opts ...transcode.Option) BuildOption {
	return func(o *buildOptions) { o.driverOpts = append(o.driverOpts, opts...) }
}

// Build constructs every component from cfg and returns a daemon ready to
// Run. Redis is optional: a tracker that cannot connect is logged and
// skipped.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...BuildOption) (*Daemon, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	var closers []io.Closer
	fail := func(err error) (*Daemon, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		return nil, err
	}

	recorder, err := store.Open(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("open completion store: %w", err))
	}
	closers = append(closers, recorder)

	q := queue.New()
	managerOpts := []workflow.Option{workflow.WithObserver(metrics.NewObserver(q))}

	var jobs fileserver.JobLookup
	if cfg.Redis.Enabled {
		tr, err := tracker.Connect(ctx, cfg, logger)
		if err != nil {
			logging.WarnWithContext(logger, "job tracking disabled", "tracker_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check redis.addr or set redis.enabled = false"),
				logging.String(logging.FieldImpact, "/jobs lookups return 404"),
			)
		} else {
			closers = append(closers, tr)
			jobs = tr
			managerOpts = append(managerOpts, workflow.WithObserver(tr))
		}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if ntfy := notifications.NewNtfy(cfg.Notifications.NtfyTopic, timeout); ntfy != nil {
		managerOpts = append(managerOpts, workflow.WithObserver(newAlertObserver(ntfy, logging.NewComponentLogger(logger, "alerts"))))
	}

	api := o.api
	if api == nil {
		if err := cfg.RequireTelegram(); err != nil {
			return fail(err)
		}
		bot, err := telegram.Connect(ctx, cfg, logger)
		if err != nil {
			return fail(err)
		}
		api = bot
	}

	resolver := telegram.NewResolver(api, cfg.Telegram.StorageRoot, cfg.Telegram.Token)
	driver := transcode.NewDriverFromConfig(cfg, resolver, logger, o.driverOpts...)
	publisher := publish.New(cfg.Server.PublicBaseURL, recorder, logger)
	manager := workflow.NewManager(q, driver, publisher, logger, managerOpts...)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	server := fileserver.New(fileserver.Options{
		OutputDir:   cfg.Paths.OutputDir,
		CORSOrigin:  cfg.Server.CORSOrigin,
		MetricsPath: metricsPath,
		Status:      manager,
		Jobs:        jobs,
	}, logger)

	d, err := New(cfg, Components{
		Manager: manager,
		Bot:     telegram.NewBot(api, manager, cfg.Telegram.PollTimeoutSeconds, logger),
		Server:  server,
		Closers: closers,
	}, logger)
	if err != nil {
		return fail(err)
	}
	return d, nil
}
