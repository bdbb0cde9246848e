package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/penwyp/go-claude-latency/internal/core/constants"
	"github.com/penwyp/go-claude-latency/internal/core/metrics"
	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/core/segment"
	"github.com/penwyp/go-claude-latency/internal/core/streak"
	"github.com/penwyp/go-claude-latency/internal/data/cache"
	"github.com/penwyp/go-claude-latency/internal/data/parser"
	"github.com/penwyp/go-claude-latency/internal/data/scanner"
	"github.com/penwyp/go-claude-latency/internal/util"
)

type Config struct {
	DataDir  string
	CacheDir string
	Project  string
	// Duration limits turns to a trailing window such as "7d" or "2w3d".
	Duration       string
	GapThreshold   time.Duration
	LatencyCeiling time.Duration
	TextWidth      int
	Concurrency    int
	Time           *util.TimeProvider
}

type Analyzer struct {
	config      *Config
	cache       cache.Cache
	scanner     *scanner.FileScanner
	parser      *parser.Parser
	reducer     *metrics.Reducer
	timeSource  *util.TimeProvider
	logger      util.LoggerInterface
	preloadOnce sync.Once
}

func New(config *Config, logger util.LoggerInterface) (*Analyzer, error) {
	if logger == nil {
		logger = util.NewNopLogger()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.NumCPU()
	}
	if config.GapThreshold <= 0 {
		config.GapThreshold = constants.GapThreshold
	}
	if config.TextWidth <= 0 {
		config.TextWidth = constants.TriggerTextWidth
	}
	if config.Time == nil {
		tp, err := util.NewTimeProvider("")
		if err != nil {
			return nil, err
		}
		config.Time = tp
	}

	fileCache, err := cache.NewFileCache(config.CacheDir, cache.Rules(config.GapThreshold, config.TextWidth), logger)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		config:     config,
		cache:      fileCache,
		scanner:    scanner.NewFileScanner(config.DataDir, logger),
		parser:     parser.NewParser(logger),
		reducer:    metrics.NewReducer(config.Time.Location()),
		timeSource: config.Time,
		logger:     logger,
	}, nil
}

// ClearCache drops every cached file result.
func (a *Analyzer) ClearCache() error {
	return a.cache.Clear()
}

// Analyze runs the whole pipeline once. Data anomalies are counted in the
// returned stats; only scan failures and cancellation are errors.
func (a *Analyzer) Analyze(ctx context.Context) (*model.Analysis, error) {
	startTime := time.Now()
	now := a.timeSource.Now()
	analysis := &model.Analysis{
		Report:      model.NewReport(),
		GeneratedAt: now,
		Timezone:    a.timeSource.Location().String(),
	}

	// Phase 1: Preload cache into memory
	preloadStart := time.Now()
	a.preloadOnce.Do(func() {
		if err := a.cache.Preload(); err != nil {
			a.logger.Warnf("Cache preload failed: %v", err)
		}
	})
	a.logger.Debugf("Phase 1 - Cache preload duration: %v", time.Since(preloadStart))

	// Phase 2: Scan files
	scanStart := time.Now()
	files, err := a.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", a.config.DataDir, err)
	}
	files = scanner.Filter(files, a.config.Project)
	analysis.Stats.FilesScanned = len(files)
	a.logger.Debugf("Phase 2 - File scan duration: %v, found %d files", time.Since(scanStart), len(files))

	if len(files) == 0 {
		a.logger.Info("No JSONL files found", util.F("dir", a.config.DataDir), util.F("project", a.config.Project))
		return analysis, nil
	}

	// Phase 3: Resolve every file from cache or by parsing
	processStart := time.Now()
	results, err := a.collect(ctx, files, &analysis.Stats)
	if err != nil {
		return nil, err
	}
	a.logger.Debugf("Phase 3 - File processing duration: %v", time.Since(processStart))

	// Phase 4: Merge, window and reduce
	reduceStart := time.Now()
	var turns []model.Turn
	for _, r := range results {
		turns = append(turns, r.Turns...)
		mergeStats(&analysis.Stats, r)
	}
	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].TriggerTimestamp.Before(turns[j].TriggerTimestamp)
	})
	analysis.Stats.TurnsFound = len(turns)

	if a.config.Duration != "" {
		from, err := ParseDuration(a.config.Duration, now)
		if err != nil {
			return nil, err
		}
		turns, analysis.Stats.OutsideWindow = metrics.FilterSince(turns, from)
	}
	turns, analysis.Stats.OutliersDropped = metrics.FilterOutliers(turns, a.config.LatencyCeiling)

	analysis.Report = a.reducer.Reduce(turns)
	analysis.Streak = streak.Analyze(modTimes(files), now, a.timeSource.Location())
	a.logger.Debugf("Phase 4 - Reduce duration: %v, %d turns", time.Since(reduceStart), len(turns))

	a.logger.Debugf("Total duration: %v", time.Since(startTime))
	return analysis, nil
}

func (a *Analyzer) collect(ctx context.Context, files []scanner.SessionFile, stats *model.ProcessingStats) ([]*cache.FileResult, error) {
	cacheStats := NewCacheStats()

	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, cache.Key(f.Path))
	}
	validCache := a.cache.BatchValidate(keys)

	var (
		mu      sync.Mutex
		results = make([]*cache.FileResult, 0, len(files))
		toParse []scanner.SessionFile
	)

	for _, f := range files {
		cacheStats.IncrementTotal()
		key := cache.Key(f.Path)
		if validCache[key].Valid {
			if hit := a.cache.Get(key); hit.Found {
				cacheStats.IncrementHit()
				results = append(results, hit.Data)
				continue
			}
		}
		cacheStats.IncrementMiss(f.Path, validCache[key].MissReason)
		toParse = append(toParse, f)
	}
	stats.FilesFromCache = len(results)
	a.logger.Debugf("Cache hit for %d files, need to parse %d files", len(results), len(toParse))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Concurrency)

	var processed int64
	for _, f := range toParse {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := a.processFile(f)
			if err != nil {
				cacheStats.IncrementFailure()
				a.logger.Warnf("Failed to process file %s: %v", f.Path, err)
				return nil
			}
			if err := a.cache.Set(cache.Key(f.Path), result); err != nil {
				a.logger.Warnf("Failed to save cache for %s: %v", f.Path, err)
			}

			mu.Lock()
			results = append(results, result)
			processed++
			if processed%100 == 0 {
				cacheStats.LogProgress(a.logger, processed)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	_, _, _, failures, _ := cacheStats.GetStats()
	stats.FilesFailed = int(failures)
	stats.FilesProcessed = len(results)
	cacheStats.LogFinalStats(a.logger)

	sort.Slice(results, func(i, j int) bool { return results[i].FilePath < results[j].FilePath })
	return results, nil
}

// processFile parses and segments one session log.
func (a *Analyzer) processFile(f scanner.SessionFile) (*cache.FileResult, error) {
	parsed, err := a.parser.ParseFile(f.Path)
	if err != nil {
		return nil, err
	}

	project := f.ProjectPath
	for _, ev := range parsed.Events {
		if ev.Cwd != "" {
			project = ev.Cwd
			break
		}
	}

	seg := segment.New(segment.Config{
		GapThreshold: a.config.GapThreshold,
		TextWidth:    a.config.TextWidth,
		SessionID:    f.SessionID,
		ProjectPath:  project,
		SourcePath:   f.Path,
		Logger:       a.logger,
	})
	for _, ev := range parsed.Events {
		seg.Feed(ev)
	}

	return &cache.FileResult{
		SessionID:   f.SessionID,
		FilePath:    f.Path,
		ProjectPath: project,
		Turns:       seg.Finish(),
		Decode:      parsed.Stats,
		Segment:     seg.Stats(),
	}, nil
}

func mergeStats(stats *model.ProcessingStats, r *cache.FileResult) {
	stats.LinesRead += r.Decode.Lines
	stats.LinesSkipped += r.Decode.Skipped()
	stats.RecordsIgnored += r.Decode.Unrecognized
	stats.Unanswered += r.Segment.Unanswered
	stats.NegativeLatency += r.Segment.NegativeLatency
}

func modTimes(files []scanner.SessionFile) []time.Time {
	out := make([]time.Time, 0, len(files))
	for _, f := range files {
		out = append(out, f.ModTime)
	}
	return out
}

var durationPattern = regexp.MustCompile(`(\d+)([hymwd])`)

// ParseDuration resolves a window such as "12h", "7d" or "1m2w" to its
// start relative to now. Months count as 30 days and years as 365.
func ParseDuration(durationStr string, now time.Time) (time.Time, error) {
	if durationStr == "" {
		return time.Time{}, nil
	}

	matches := durationPattern.FindAllStringSubmatch(durationStr, -1)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid duration format: %s", durationStr)
	}

	var totalDuration time.Duration
	for _, match := range matches {
		value, err := strconv.Atoi(match[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid number in duration: %s", match[1])
		}

		switch match[2] {
		case "h":
			totalDuration += time.Duration(value) * time.Hour
		case "d":
			totalDuration += time.Duration(value) * 24 * time.Hour
		case "w":
			totalDuration += time.Duration(value) * 7 * 24 * time.Hour
		case "m":
			totalDuration += time.Duration(value) * 30 * 24 * time.Hour
		case "y":
			totalDuration += time.Duration(value) * 365 * 24 * time.Hour
		}
	}

	return now.Add(-totalDuration), nil
}
