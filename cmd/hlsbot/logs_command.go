package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hlsbot/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var jobID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Logging.File
			if path == "" {
				return errors.New("logging.file is not set; the daemon only logs to stdout")
			}

			out := cmd.OutOrStdout()
			emit := func(line string) {
				if jobID == "" || strings.Contains(line, jobID) {
					fmt.Fprintln(out, line)
				}
			}
			recent, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range recent {
				emit(line)
			}
			if !follow {
				return nil
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if err := logs.Follow(signalCtx, path, offset, 250*time.Millisecond, emit); err != nil && signalCtx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing appended lines")
	cmd.Flags().StringVar(&jobID, "job", "", "Only show lines mentioning this job ID")
	return cmd
}
