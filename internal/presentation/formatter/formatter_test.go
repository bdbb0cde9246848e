package formatter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-claude-latency/internal/core/metrics"
	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/data/store"
)

func sampleAnalysis() *model.Analysis {
	day1 := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)
	turn := func(session string, at time.Time, latency time.Duration, modelName string) model.Turn {
		return model.Turn{
			SessionID:              session,
			ProjectPath:            "/work/app",
			TriggerTimestamp:       at,
			FirstResponseTimestamp: at.Add(latency),
			LastResponseTimestamp:  at.Add(latency + time.Second),
			ActivityCount:          1,
			ToolInvocationCount:    1,
			Model:                  modelName,
		}
	}
	turns := []model.Turn{
		turn("s1", day1, 1500*time.Millisecond, "claude-sonnet-4-20250514"),
		turn("s1", day1.Add(time.Minute), 1200*time.Millisecond, "claude-sonnet-4-20250514"),
		turn("s2", day2, 42*time.Second, "claude-opus-4-20250514"),
	}

	return &model.Analysis{
		Report: metrics.NewReducer(time.UTC).Reduce(turns),
		Streak: model.UsageStreak{
			CurrentStreak: 2, LongestStreak: 2,
			LongestStart: "2025-01-02", LongestEnd: "2025-01-03",
			TotalDaysUsed: 2, LastActiveDate: "2025-01-03",
		},
		Stats:       model.ProcessingStats{FilesScanned: 2, FilesProcessed: 2, LinesSkipped: 3},
		GeneratedAt: day2.Add(time.Hour),
		Timezone:    "UTC",
	}
}

func render(t *testing.T, format string, opts Options) string {
	t.Helper()
	f, err := New(format, opts)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleAnalysis()))
	return buf.String()
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New("yaml", Options{})
	assert.Error(t, err)

	_, err = New("table", Options{View: "hourly"})
	assert.Error(t, err)
}

func TestNewFormats(t *testing.T) {
	for format, want := range map[string]Formatter{
		"":         &TableFormatter{},
		"table":    &TableFormatter{},
		"summary":  &SummaryFormatter{},
		"json":     &JSONFormatter{},
		"csv":      &CSVFormatter{},
		"markdown": &MarkdownFormatter{},
		"MD":       &MarkdownFormatter{},
	} {
		f, err := New(format, Options{})
		require.NoError(t, err, format)
		assert.IsType(t, want, f, format)
	}
}

func TestTableFormatterDaily(t *testing.T) {
	out := render(t, "table", Options{View: ViewDaily})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[0], "┌"))
	assert.Contains(t, lines[1], "Date")
	assert.Contains(t, lines[3], "2025-01-02")
	assert.Contains(t, lines[3], "1.4s")
	assert.Contains(t, lines[4], "2025-01-03")
	assert.Contains(t, lines[4], "42.0s")
	assert.Contains(t, lines[6], "Total")
	assert.True(t, strings.HasPrefix(lines[7], "└"))

	width := len([]rune(lines[0]))
	for _, line := range lines {
		assert.Equal(t, width, len([]rune(line)), line)
	}
}

func TestTableFormatterLimitKeepsRecentDays(t *testing.T) {
	out := render(t, "table", Options{View: ViewDaily, Limit: 1})
	assert.NotContains(t, out, "2025-01-02")
	assert.Contains(t, out, "2025-01-03")
}

func TestTableFormatterSessions(t *testing.T) {
	out := render(t, "table", Options{View: ViewSessions})
	s2 := strings.Index(out, "s2")
	s1 := strings.Index(out, "s1")
	require.Positive(t, s1)
	require.Positive(t, s2)
	assert.Less(t, s2, s1, "most recent session first")
	assert.Contains(t, out, "/work/app")
}

func TestSessionViewUsesAnalysisTimezone(t *testing.T) {
	a := sampleAnalysis()
	a.Timezone = "Asia/Tokyo"

	f, err := New("csv", Options{View: ViewSessions})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, a))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "s2", records[1][0])
	assert.Equal(t, "2025-01-03 19:00", records[1][len(records[1])-1])
	assert.Equal(t, "2025-01-02 19:01", records[2][len(records[2])-1])
}

func TestAnalysisLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, analysisLocation(&model.Analysis{}))
	assert.Equal(t, time.UTC, analysisLocation(&model.Analysis{Timezone: "Mars/Olympus"}))
	assert.Equal(t, "Asia/Tokyo", analysisLocation(&model.Analysis{Timezone: "Asia/Tokyo"}).String())
}

func TestTableFormatterModels(t *testing.T) {
	out := render(t, "table", Options{View: ViewModels})
	assert.Less(t, strings.Index(out, "Opus-4"), strings.Index(out, "Sonnet-4"))
}

func TestCSVFormatter(t *testing.T) {
	out := render(t, "csv", Options{View: ViewDaily})

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Date", "Turns", "Sessions", "Avg (ms)", "P50 (ms)", "P90 (ms)", "P99 (ms)", "Min (ms)", "Max (ms)", "Tools"}, records[0])
	assert.Equal(t, []string{"2025-01-02", "2", "1", "1350.0", "1200", "1500", "1500", "1200", "1500", "2"}, records[1])
}

func TestJSONFormatter(t *testing.T) {
	out := render(t, "json", Options{})

	var decoded model.Analysis
	require.NoError(t, sonic.UnmarshalString(out, &decoded))
	assert.Equal(t, 3, decoded.Report.Summary.TotalTurns)
	assert.Equal(t, int64(2700), decoded.Report.Daily["2025-01-02"].TotalLatencyMs)
	assert.Equal(t, 2, decoded.Streak.LongestStreak)
	assert.Contains(t, out, "\n  \"generatedAt\"")
}

func TestSummaryFormatter(t *testing.T) {
	out := render(t, "summary", Options{NoColor: true})

	assert.Contains(t, out, "Claude Response Latency Summary")
	assert.Contains(t, out, "2025-01-02 to 2025-01-03")
	assert.Contains(t, out, "P90")
	assert.Contains(t, out, "Opus-4")
	assert.Contains(t, out, "2 days (2025-01-02 to 2025-01-03)")
	assert.Contains(t, out, "2 files processed, 3 lines skipped as unparsable")
	assert.NotContains(t, out, "\x1b[")
}

func TestSummaryFormatterEmpty(t *testing.T) {
	f := NewSummaryFormatter(Options{NoColor: true})
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, &model.Analysis{Report: model.NewReport()}))
	assert.Contains(t, buf.String(), "No answered turns found.")
	assert.Contains(t, buf.String(), "0 files processed, 0 lines skipped as unparsable")
}

func TestMarkdownFormatter(t *testing.T) {
	out := render(t, "markdown", Options{View: ViewDaily})

	assert.Contains(t, out, "# Claude Response Latency Report")
	assert.Contains(t, out, "## Summary")
	assert.Contains(t, out, "## Daily Breakdown")
	assert.Contains(t, out, "| Date | Turns |")
	assert.Contains(t, out, "|---|---:|")
	assert.Contains(t, out, "| **Total** |")
	assert.Contains(t, out, "## Streaks & Trends")
}

func TestProcessingLineMentionsFailures(t *testing.T) {
	line := ProcessingLine(model.ProcessingStats{FilesProcessed: 1200, LinesSkipped: 4, FilesFailed: 2})
	assert.Equal(t, "1,200 files processed, 4 lines skipped as unparsable, 2 files unreadable", line)
}

func TestFormatStreak(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatStreak(&buf, sampleAnalysis().Streak, true))

	out := buf.String()
	assert.Contains(t, out, "Current Streak:")
	assert.Contains(t, out, "2 days (2025-01-02 to 2025-01-03)")
	assert.Contains(t, out, "2025-01-03")
	assert.NotContains(t, out, "\x1b[")
}

func sampleSnapshots() []store.Snapshot {
	return []store.Snapshot{{
		RunID:          "run-1",
		TakenAt:        time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC),
		TotalTurns:     3,
		UniqueSessions: 2,
		AverageMs:      14900,
		P50:            1500,
		P90:            42000,
		P99:            42000,
		FirstDate:      "2025-01-02",
		LastDate:       "2025-01-03",
		CurrentStreak:  2,
	}}
}

func TestFormatHistory(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FormatHistory(&buf, sampleSnapshots(), "table"))
		out := buf.String()
		assert.Contains(t, out, "2025-01-02..2025-01-03")
		assert.Contains(t, out, "42.0s")
		assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 5)
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FormatHistory(&buf, sampleSnapshots(), "csv"))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "42000", records[1][6])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FormatHistory(&buf, nil, "json"))
		assert.Equal(t, "[]\n", buf.String())
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, FormatHistory(&bytes.Buffer{}, nil, "yaml"))
	})
}

func TestFormatSnapshotDays(t *testing.T) {
	days := []store.SnapshotDay{
		{Date: "2025-01-02", Turns: 2, AverageMs: 1350, P50: 1200, P90: 1500, P99: 1500},
	}

	var buf bytes.Buffer
	require.NoError(t, FormatSnapshotDays(&buf, days, "csv"))
	assert.Equal(t, "Date,Turns,Avg,P50,P90,P99\n2025-01-02,2,1350.0,1200,1500,1500\n", buf.String())

	buf.Reset()
	require.NoError(t, FormatSnapshotDays(&buf, days, "table"))
	assert.Contains(t, buf.String(), "1.4s")
}
