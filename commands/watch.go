package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/data/watcher"
	"github.com/penwyp/go-claude-latency/internal/presentation/formatter"
	"github.com/penwyp/go-claude-latency/internal/util"
)

func newWatchCmd(opts *options) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever a session log changes",
		Long: `Watches the Claude project directory and redraws the report shortly after
session logs stop changing. Unchanged files are served from the cache, so each
refresh only parses what was written since the last one. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if changedFlag(cmd, "debounce") {
				cfg.Watch.Debounce = debounce
			}
			if !changedFlag(cmd, "output") && !changedFlag(cmd, "format") {
				cfg.Output.Format = "summary"
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

			out := cmd.OutOrStdout()
			f, err := formatter.New(cfg.Output.Format, formatter.Options{
				View:    cfg.Output.View,
				Limit:   cfg.Output.Limit,
				NoColor: noColor(cfg, out),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			redraw := isTerminal(out)
			refresh := func() error {
				analysis, err := a.Analyze(ctx)
				if err != nil {
					return err
				}
				if redraw {
					if _, err := io.WriteString(out, util.ClearScreen+util.MoveCursorHome); err != nil {
						return err
					}
				}
				return f.Format(out, analysis)
			}

			if err := refresh(); err != nil {
				return err
			}

			w, err := watcher.New([]string{cfg.DataDir}, logger)
			if err != nil {
				return err
			}
			defer w.Close()

			logger.Info("Watching for changes", util.F("dir", cfg.DataDir), util.F("debounce", cfg.Watch.Debounce.String()))
			return watchLoop(ctx, w.Events(), cfg.Watch.Debounce, refresh, logger)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second, "Quiet period after the last change before refreshing")
	return cmd
}

// watchLoop calls refresh once events have been quiet for debounce. It
// returns nil when ctx is done or events is closed.
func watchLoop(ctx context.Context, events <-chan model.FileEvent, debounce time.Duration, refresh func() error, logger util.LoggerInterface) error {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			logger.Debugf("Session log changed: %s (%s)", ev.Path, ev.Operation)
			timer.Reset(debounce)

		case <-timer.C:
			if err := refresh(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Warnf("Refresh failed: %v", err)
			}
		}
	}
}
