package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/go-claude-latency/internal/data/store"
	"github.com/penwyp/go-claude-latency/internal/presentation/formatter"
)

const defaultHistoryLimit = 10

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded snapshots, or the daily rows of one",
		Long: `Lists the snapshots stored by --record, most recent first. With a run id,
prints the daily buckets recorded for that run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			db, err := store.Open(cfg.History.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				days, err := db.SnapshotDays(args[0])
				if err != nil {
					return err
				}
				return formatter.FormatSnapshotDays(out, days, cfg.Output.Format)
			}

			limit := cfg.Output.Limit
			if limit == 0 {
				limit = defaultHistoryLimit
			}
			snapshots, err := db.ListSnapshots(limit)
			if err != nil {
				return err
			}
			return formatter.FormatHistory(out, snapshots, cfg.Output.Format)
		},
	}
}
