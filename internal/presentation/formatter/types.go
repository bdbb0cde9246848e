package formatter

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/util"
)

// Formatter renders one analysis.
type Formatter interface {
	Format(w io.Writer, a *model.Analysis) error
}

// Views select which grouping tabular formats render.
const (
	ViewDaily    = "daily"
	ViewSessions = "sessions"
	ViewModels   = "models"
)

// Options tune what a formatter renders.
type Options struct {
	View string
	// Limit keeps the most recent N days or sessions; 0 keeps all.
	Limit   int
	NoColor bool
}

// New returns the formatter for format.
func New(format string, opts Options) (Formatter, error) {
	if opts.View == "" {
		opts.View = ViewDaily
	}
	switch opts.View {
	case ViewDaily, ViewSessions, ViewModels:
	default:
		return nil, fmt.Errorf("unknown view %q (expected daily, sessions or models)", opts.View)
	}

	switch strings.ToLower(format) {
	case "", "table":
		return NewTableFormatter(opts), nil
	case "summary":
		return NewSummaryFormatter(opts), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(opts), nil
	case "markdown", "md":
		return NewMarkdownFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected table, summary, json, csv or markdown)", format)
	}
}

// grid is a view flattened into cells. Totals is nil when the view has none.
type grid struct {
	headers []string
	// numeric marks right-aligned columns.
	numeric []bool
	rows    [][]string
	totals  []string
}

type cellFormat struct {
	latency func(ms int64) string
	average func(ms float64) string
	count   func(n int) string
}

var humanCells = cellFormat{
	latency: util.FormatLatency,
	average: util.FormatLatencyFloat,
	count:   func(n int) string { return util.FormatNumber(int64(n)) },
}

var rawCells = cellFormat{
	latency: func(ms int64) string { return strconv.FormatInt(ms, 10) },
	average: func(ms float64) string { return strconv.FormatFloat(ms, 'f', 1, 64) },
	count:   strconv.Itoa,
}

func buildGrid(a *model.Analysis, view string, limit int, cells cellFormat) grid {
	switch view {
	case ViewSessions:
		return sessionGrid(a.Report, analysisLocation(a), limit, cells)
	case ViewModels:
		return modelGrid(a.Report, cells)
	default:
		return dailyGrid(a.Report, limit, cells)
	}
}

// analysisLocation returns the zone the daily buckets were cut in, so
// timestamps line up with them. Unknown names fall back to UTC.
func analysisLocation(a *model.Analysis) *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func dailyGrid(report *model.Report, limit int, cells cellFormat) grid {
	g := grid{
		headers: []string{"Date", "Turns", "Sessions", "Avg", "P50", "P90", "P99", "Min", "Max", "Tools"},
		numeric: []bool{false, true, true, true, true, true, true, true, true, true},
	}
	for _, b := range SortedDays(report, limit) {
		g.rows = append(g.rows, []string{
			b.Date,
			cells.count(b.Count),
			cells.count(len(b.SessionIDs)),
			cells.average(b.AverageLatencyMs),
			cells.latency(b.Percentiles.P50),
			cells.latency(b.Percentiles.P90),
			cells.latency(b.Percentiles.P99),
			cells.latency(b.MinLatencyMs),
			cells.latency(b.MaxLatencyMs),
			cells.count(b.ToolInvocations),
		})
	}
	s := report.Summary
	g.totals = []string{
		"Total",
		cells.count(s.TotalTurns),
		cells.count(s.UniqueSessions),
		cells.average(s.AverageLatencyMs),
		cells.latency(s.Percentiles.P50),
		cells.latency(s.Percentiles.P90),
		cells.latency(s.Percentiles.P99),
		"", "",
		cells.count(s.ToolInvocations),
	}
	return g
}

func sessionGrid(report *model.Report, loc *time.Location, limit int, cells cellFormat) grid {
	g := grid{
		headers: []string{"Session", "Project", "Turns", "Avg", "P50", "P90", "P99", "Last Turn"},
		numeric: []bool{false, false, true, true, true, true, true, false},
	}
	for _, s := range SortedSessions(report, limit) {
		g.rows = append(g.rows, []string{
			s.SessionID,
			s.ProjectPath,
			cells.count(s.TurnCount),
			cells.average(s.AverageLatencyMs),
			cells.latency(s.Percentiles.P50),
			cells.latency(s.Percentiles.P90),
			cells.latency(s.Percentiles.P99),
			s.LastTurnTime.In(loc).Format("2006-01-02 15:04"),
		})
	}
	return g
}

func modelGrid(report *model.Report, cells cellFormat) grid {
	g := grid{
		headers: []string{"Model", "Turns", "Avg", "P50", "P90", "P99"},
		numeric: []bool{false, true, true, true, true, true},
	}
	for _, m := range SortedModels(report) {
		g.rows = append(g.rows, []string{
			m.Model,
			cells.count(m.TurnCount),
			cells.average(m.AverageLatencyMs),
			cells.latency(m.Percentiles.P50),
			cells.latency(m.Percentiles.P90),
			cells.latency(m.Percentiles.P99),
		})
	}
	return g
}

// SortedDays returns the daily buckets in date order, keeping the last limit days.
func SortedDays(report *model.Report, limit int) []model.DailyBucket {
	days := make([]model.DailyBucket, 0, len(report.Daily))
	for _, b := range report.Daily {
		days = append(days, b)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	if limit > 0 && len(days) > limit {
		days = days[len(days)-limit:]
	}
	return days
}

// SortedSessions returns sessions most recent first, keeping the first limit.
func SortedSessions(report *model.Report, limit int) []model.SessionSummary {
	sessions := make([]model.SessionSummary, 0, len(report.Sessions))
	for _, s := range report.Sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].LastTurnTime.Equal(sessions[j].LastTurnTime) {
			return sessions[i].LastTurnTime.After(sessions[j].LastTurnTime)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions
}

// SortedModels returns models in family order.
func SortedModels(report *model.Report) []model.ModelSummary {
	names := make([]string, 0, len(report.Models))
	for name := range report.Models {
		names = append(names, name)
	}
	out := make([]model.ModelSummary, 0, len(names))
	for _, name := range util.SortModels(names) {
		out = append(out, report.Models[name])
	}
	return out
}
