package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hlsbot/internal/logging"
	"hlsbot/internal/notifications"
	"hlsbot/internal/publish"
	"hlsbot/internal/queue"
	"hlsbot/internal/store"
	"hlsbot/internal/transcode"
	"hlsbot/internal/workflow"
)

func newTranscodeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "transcode FILE...",
		Short: "Package local video files into HLS through the job queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{Level: logLevel, Format: "console", OutputPaths: []string{"stderr"}})
			if err != nil {
				return err
			}
			recorder, err := store.Open(signalCtx, cfg)
			if err != nil {
				return err
			}
			defer recorder.Close()

			out := cmd.OutOrStdout()
			tally := newTally(len(args))
			manager := workflow.NewManager(
				queue.New(),
				transcode.NewDriverFromConfig(cfg, transcode.PathResolver{}, logger),
				publish.New(cfg.Server.PublicBaseURL, recorder, logger),
				logger,
				workflow.WithObserver(tally),
			)

			for _, arg := range args {
				name := filepath.Base(arg)
				var size int64
				if info, err := os.Stat(arg); err == nil {
					size = info.Size()
				}
				job := queue.NewJob(arg, name, size, notifications.NewConsole(out, name))
				position, err := manager.Submit(signalCtx, job)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "[%s] queued at position %d (%s)\n", name, position, humanize.Bytes(uint64(size)))
			}

			if err := manager.Start(signalCtx); err != nil {
				return err
			}
			defer manager.Stop()

			select {
			case <-tally.done:
			case <-signalCtx.Done():
				return signalCtx.Err()
			}
			if failed := tally.failures(); failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level for pipeline diagnostics on stderr")
	return cmd
}

// tally closes done once every submitted job reached a terminal status.
type tally struct {
	mu        sync.Mutex
	remaining int
	failed    int
	done      chan struct{}
}

func newTally(total int) *tally {
	return &tally{remaining: total, done: make(chan struct{})}
}

func (t *tally) Observe(_ context.Context, ev workflow.Event) {
	if !ev.Status.IsTerminal() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if ev.Status == queue.StatusFailed {
		t.failed++
	}
	t.remaining--
	if t.remaining == 0 {
		close(t.done)
	}
}

func (t *tally) failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}
