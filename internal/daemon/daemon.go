package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"hlsbot/internal/config"
	"hlsbot/internal/logging"
	"hlsbot/internal/notifications"
	"hlsbot/internal/services"
	"hlsbot/internal/workflow"
)

// Runner is a component that blocks until ctx is cancelled or it fails.
type Runner interface {
	Run(ctx context.Context) error
}

// HTTPServer serves the stream file server on an address.
type HTTPServer interface {
	Run(ctx context.Context, addr string) error
}

// Components are the collaborators the daemon runs. Manager is required.
type Components struct {
	Manager *workflow.Manager
	Bot     Runner
	Server  HTTPServer
	// Closers are released in reverse order by Close.
	Closers []io.Closer
}

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	parts   Components
	lock    *flock.Flock
	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool                   `json:"running"`
	Workflow     workflow.StatusSummary `json:"workflow"`
	LockFilePath string                 `json:"lock_file"`
	OutputDir    string                 `json:"output_dir"`
}

// New constructs a daemon around already built components.
func New(cfg *config.Config, parts Components, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || parts.Manager == nil {
		return nil, errors.New("daemon requires config and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Daemon{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "daemon"),
		parts:  parts,
		lock:   flock.New(cfg.LockPath()),
	}, nil
}

// Run acquires the instance lock and runs every component until ctx is
// cancelled or one of them stops. Jobs still pending at shutdown are told
// they were dropped.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another hlsbot instance holds %s", d.cfg.LockPath())
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the lock file if no other instance runs"),
			)
		}
	}()

	group, groupCtx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(groupCtx)
	defer stop()

	if err := d.parts.Manager.Start(runCtx); err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	group.Go(func() error {
		<-runCtx.Done()
		d.parts.Manager.Stop()
		d.dropPending(context.WithoutCancel(ctx))
		return nil
	})
	if d.parts.Server != nil {
		group.Go(func() error {
			defer stop()
			return d.parts.Server.Run(runCtx, d.cfg.Server.Bind)
		})
	}
	if d.parts.Bot != nil {
		group.Go(func() error {
			defer stop()
			return d.parts.Bot.Run(runCtx)
		})
	}

	d.logger.Info("hlsbot daemon started",
		logging.String("lock", d.cfg.LockPath()),
		logging.String("bind", d.cfg.Server.Bind),
		logging.String("output_dir", d.cfg.Paths.OutputDir),
	)
	err = group.Wait()
	d.logger.Info("hlsbot daemon stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (d *Daemon) dropPending(ctx context.Context) {
	dropped := d.parts.Manager.Queue().Close()
	if len(dropped) == 0 {
		return
	}
	logging.WarnWithContext(d.logger, "dropping pending jobs on shutdown", "jobs_dropped",
		logging.Int("count", len(dropped)),
		logging.String(logging.FieldImpact, "users must resend these videos"),
	)
	reason := services.Wrap(services.ErrTranscodeFailed, "daemon", "shutdown", "Service restarting, please resend the video", nil)
	for _, job := range dropped {
		notifications.Deliver(ctx, d.logger, job.Notifier, workflow.FailureMessage(reason))
	}
}

// Running reports whether Run is in progress.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Manager returns the workflow manager the daemon drives.
func (d *Daemon) Manager() *workflow.Manager {
	return d.parts.Manager
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Workflow:     d.parts.Manager.Status(),
		LockFilePath: d.cfg.LockPath(),
		OutputDir:    d.cfg.Paths.OutputDir,
	}
}

// Close releases resources held by the daemon's components.
func (d *Daemon) Close() error {
	var errs []error
	for i := len(d.parts.Closers) - 1; i >= 0; i-- {
		if c := d.parts.Closers[i]; c != nil {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
