package commands

import (
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/penwyp/go-claude-latency/internal/presentation/formatter"
)

func newStreakCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show consecutive days of Claude Code usage",
		Long: `Counts the calendar days on which session logs were written and reports the
current and longest runs of consecutive active days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, opts.debug)
			if err != nil {
				return err
			}
			defer logger.Close()

			a, err := newAnalyzer(cfg, opts, logger)
			if err != nil {
				return err
			}
			analysis, err := a.Analyze(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.Output.Format == "json" {
				data, err := sonic.ConfigStd.MarshalIndent(analysis.Streak, "", "  ")
				if err != nil {
					return err
				}
				_, err = out.Write(append(data, '\n'))
				return err
			}
			return formatter.FormatStreak(out, analysis.Streak, noColor(cfg, out))
		},
	}
}
