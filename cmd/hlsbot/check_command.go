package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hlsbot/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run preflight checks against the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, checkStatus(r), yesNo(!r.Optional), r.Detail})
			}
			out := cmd.OutOrStdout()
			writeTable(out, []string{"Check", "Status", "Required", "Detail"}, rows, nil)

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
}

func checkStatus(r preflight.Result) string {
	switch {
	case r.Passed:
		return "ok"
	case r.Optional:
		return "warn"
	default:
		return "FAIL"
	}
}
