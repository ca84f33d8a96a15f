package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hlsbot/internal/daemon"
	"hlsbot/internal/logging"
	"hlsbot/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the transcoding queue and the stream server",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.RequireTelegram(); err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			if !skipChecks {
				failed := preflight.Failed(preflight.RunAll(signalCtx, cfg))
				for _, r := range failed {
					logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
						logging.String("check", r.Name),
						logging.String("detail", r.Detail),
						logging.String(logging.FieldErrorHint, "run `hlsbot check` for the full report"),
					)
				}
				if len(failed) > 0 {
					return fmt.Errorf("%d preflight check(s) failed", len(failed))
				}
			}

			d, err := daemon.Build(signalCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := d.Close(); err != nil {
					logging.WarnWithContext(logger, "failed to close daemon resources", "daemon_close_failed", logging.Error(err))
				}
			}()
			return d.Run(signalCtx)
		},
	}

	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Start without running preflight checks")
	return cmd
}
