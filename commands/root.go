package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-claude-latency/internal/analyzer"
	"github.com/penwyp/go-claude-latency/internal/config"
	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/data/store"
	"github.com/penwyp/go-claude-latency/internal/presentation/formatter"
	"github.com/penwyp/go-claude-latency/internal/util"
)

// options holds the persistent and analyze flags shared by every command.
type options struct {
	cfgFile string
	debug   bool

	// Data path
	dataDir string

	// Filtering
	duration   string
	project    string
	maxLatency time.Duration
	gap        time.Duration

	// Output related
	outputFormat string
	view         string
	limit        int
	timezone     string
	noColor      bool

	record bool
	reset  bool
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "go-claude-latency [flags]",
		Short: "Claude Code response latency analytics",
		Long: `go-claude-latency measures how long Claude Code took to start answering each prompt.

It scans the JSONL session logs in the Claude project directory, pairs every genuine
user prompt with the assistant activity that answered it, and reports latency
percentiles per day, session and model together with usage streaks.

Examples:
  go-claude-latency                                 # Daily breakdown of all sessions
  go-claude-latency --duration 7d                   # Last 7 days
  go-claude-latency --project api --view sessions   # Sessions of projects matching "api"
  go-claude-latency -o summary                      # Styled overview with percentiles
  go-claude-latency -o markdown > latency.md        # Markdown report
  go-claude-latency --max-latency 0 --gap 30m       # Keep outliers, longer bursts
  go-claude-latency --record                        # Also store a history snapshot`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "Config file (default ~/.go-claude-latency/config.yaml)")
	pf.StringVar(&opts.dataDir, "dir", "", "Claude project directory path (default ~/.claude/projects)")
	pf.StringVar(&opts.project, "project", "", "Only analyze projects whose directory contains this text")
	pf.StringVar(&opts.timezone, "timezone", "", "Timezone for date bucketing (e.g., Asia/Shanghai, UTC)")
	pf.DurationVar(&opts.gap, "gap", 0, "Longest idle stretch inside one assistant burst (default 15m)")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug mode")
	pf.BoolVarP(&opts.reset, "reset", "r", false, "Clear cache before analysis")
	pf.StringVarP(&opts.duration, "duration", "d", "",
		"Time duration to look back (e.g., 12h, 7d, 2w, 1m, 3m2w1d, 1d12h)")
	pf.StringVarP(&opts.outputFormat, "output", "o", "", "Output format (table, summary, json, csv, markdown)")
	pf.StringVar(&opts.outputFormat, "format", "", "Alias for --output")
	pf.StringVar(&opts.view, "view", "", "Tabular view (daily, sessions, models)")
	pf.IntVar(&opts.limit, "limit", 0, "Limit rows to the most recent N (0 = unlimited)")

	f := rootCmd.Flags()
	f.DurationVar(&opts.maxLatency, "max-latency", 0, "Drop turns slower than this (0 disables, default 5m)")
	f.BoolVar(&opts.record, "record", false, "Store a snapshot of this run in the history database")

	rootCmd.AddCommand(
		newStreakCmd(opts),
		newWatchCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func runAnalyze(cmd *cobra.Command, opts *options) error {
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

	if cfg.History.Record {
		recordSnapshot(cfg.History.DBPath, analysis, logger)
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
	return f.Format(out, analysis)
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, err
	}

	if changedFlag(cmd, "dir") {
		cfg.DataDir = opts.dataDir
	}
	if changedFlag(cmd, "timezone") {
		cfg.Timezone = opts.timezone
	}
	if changedFlag(cmd, "gap") {
		cfg.GapThreshold = opts.gap
	}
	if changedFlag(cmd, "max-latency") {
		cfg.LatencyCeiling = opts.maxLatency
	}
	if changedFlag(cmd, "output") || changedFlag(cmd, "format") {
		cfg.Output.Format = opts.outputFormat
	}
	if changedFlag(cmd, "view") {
		cfg.Output.View = opts.view
	}
	if changedFlag(cmd, "limit") {
		cfg.Output.Limit = opts.limit
	}
	if changedFlag(cmd, "no-color") {
		cfg.Output.Color = !opts.noColor
	}
	if changedFlag(cmd, "record") {
		cfg.History.Record = opts.record
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes to the log file, and also to stderr at debug level with --debug.
func newLogger(cfg *config.Config, debug bool) (*util.Logger, error) {
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	return util.NewLogger(level, cfg.Log.File, debug)
}

func newAnalyzer(cfg *config.Config, opts *options, logger util.LoggerInterface) (*analyzer.Analyzer, error) {
	tp, err := util.NewTimeProvider(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	a, err := analyzer.New(&analyzer.Config{
		DataDir:        cfg.DataDir,
		CacheDir:       cfg.CacheDir,
		Project:        opts.project,
		Duration:       opts.duration,
		GapThreshold:   cfg.GapThreshold,
		LatencyCeiling: cfg.LatencyCeiling,
		TextWidth:      cfg.TextWidth,
		Concurrency:    cfg.Concurrency,
		Time:           tp,
	}, logger)
	if err != nil {
		return nil, err
	}

	if opts.reset {
		if err := a.ClearCache(); err != nil {
			return nil, fmt.Errorf("failed to clear cache: %w", err)
		}
		logger.Info("Cache cleared", util.F("dir", cfg.CacheDir))
	}
	return a, nil
}

// recordSnapshot never fails the run; history is best effort.
func recordSnapshot(dbPath string, analysis *model.Analysis, logger util.LoggerInterface) {
	db, err := store.Open(dbPath)
	if err != nil {
		logger.Warnf("Failed to open history database %s: %v", dbPath, err)
		return
	}
	defer db.Close()

	runID, err := db.RecordSnapshot(analysis)
	if err != nil {
		logger.Warnf("Failed to record snapshot: %v", err)
		return
	}
	logger.Info("Snapshot recorded", util.F("run_id", runID))
}

func changedFlag(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// noColor disables styling when configured or when w is not a terminal.
func noColor(cfg *config.Config, w io.Writer) bool {
	return !cfg.Output.Color || !isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && util.IsTerminal(f)
}
