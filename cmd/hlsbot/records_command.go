package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hlsbot/internal/config"
	"hlsbot/internal/store"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List recent completion records from the sqlite store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.StoreSQLite {
				return fmt.Errorf("records are only readable from the sqlite store (store.driver = %q)", cfg.Store.Driver)
			}
			db, err := store.OpenSQLite(cmd.Context(), cfg.Store.SQLitePath, cfg.Store.Table)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := db.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No completed jobs recorded")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{humanize.Time(rec.CreatedAt), rec.Name, rec.Status, rec.URL})
			}
			writeTable(out, []string{"When", "File", "Status", "HLS URL"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show")
	return cmd
}
