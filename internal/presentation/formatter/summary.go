package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/util"
)

const summaryWidth = 60

// SummaryFormatter renders a compact report: overview, percentiles, models and streaks.
type SummaryFormatter struct {
	opts   Options
	styles styles
}

func NewSummaryFormatter(opts Options) *SummaryFormatter {
	return &SummaryFormatter{opts: opts, styles: newStyles(opts.NoColor)}
}

func (f *SummaryFormatter) Format(w io.Writer, a *model.Analysis) error {
	s := f.styles
	sum := a.Report.Summary
	var sb strings.Builder

	rule := s.muted.Render(util.Rule("=", summaryWidth))
	sb.WriteString(rule + "\n")
	sb.WriteString(s.header.Render("Claude Response Latency Summary") + "\n")
	sb.WriteString(rule + "\n")

	if sum.TotalTurns == 0 {
		sb.WriteString("No answered turns found.\n")
	} else {
		f.line(&sb, "Date Range", fmt.Sprintf("%s to %s (%d active days)", sum.FirstDate, sum.LastDate, sum.ActiveDays))
		f.line(&sb, "Turns", util.FormatNumber(int64(sum.TotalTurns)))
		f.line(&sb, "Sessions", util.FormatNumber(int64(sum.UniqueSessions)))
		f.line(&sb, "Tool Calls", util.FormatNumber(int64(sum.ToolInvocations)))
		f.line(&sb, "Average Latency", s.latencyStyle(sum.AverageLatencyMs).Render(util.FormatLatencyFloat(sum.AverageLatencyMs)))
		f.line(&sb, "Total Wait", util.FormatLatency(sum.TotalLatencyMs))

		sb.WriteString("\n" + s.header.Render("Percentiles") + "\n")
		for _, p := range []struct {
			name string
			ms   int64
		}{{"P50", sum.Percentiles.P50}, {"P90", sum.Percentiles.P90}, {"P99", sum.Percentiles.P99}} {
			f.line(&sb, p.name, s.latencyStyle(float64(p.ms)).Render(util.FormatLatency(p.ms)))
		}

		if models := SortedModels(a.Report); len(models) > 0 {
			sb.WriteString("\n" + s.header.Render("By Model") + "\n")
			for _, m := range models {
				f.line(&sb, m.Model, fmt.Sprintf("%s turns, avg %s, p90 %s",
					util.FormatNumber(int64(m.TurnCount)),
					util.FormatLatencyFloat(m.AverageLatencyMs),
					util.FormatLatency(m.Percentiles.P90)))
			}
		}
	}

	sb.WriteString("\n")
	f.streak(&sb, a.Streak)

	sb.WriteString(rule + "\n")
	sb.WriteString(s.muted.Render(ProcessingLine(a.Stats)) + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *SummaryFormatter) streak(sb *strings.Builder, st model.UsageStreak) {
	sb.WriteString(f.styles.header.Render("Streaks") + "\n")
	f.line(sb, "Current Streak", pluralDays(st.CurrentStreak))
	longest := pluralDays(st.LongestStreak)
	if st.LongestStreak > 0 {
		longest += fmt.Sprintf(" (%s to %s)", st.LongestStart, st.LongestEnd)
	}
	f.line(sb, "Longest Streak", longest)
	f.line(sb, "Days Used", util.FormatNumber(int64(st.TotalDaysUsed)))
	if st.LastActiveDate != "" {
		f.line(sb, "Last Active", st.LastActiveDate)
	}
}

// FormatStreak writes only the streak section of the summary.
func FormatStreak(w io.Writer, st model.UsageStreak, noColor bool) error {
	var sb strings.Builder
	NewSummaryFormatter(Options{NoColor: noColor}).streak(&sb, st)
	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *SummaryFormatter) line(sb *strings.Builder, label, value string) {
	sb.WriteString(f.styles.label.Render(label+":") + f.styles.value.Render(value) + "\n")
}

// ProcessingLine is the one-line account of what was read and skipped.
func ProcessingLine(st model.ProcessingStats) string {
	line := fmt.Sprintf("%s files processed, %s lines skipped as unparsable",
		util.FormatNumber(int64(st.FilesProcessed)), util.FormatNumber(int64(st.LinesSkipped)))
	if st.FilesFailed > 0 {
		line += fmt.Sprintf(", %d files unreadable", st.FilesFailed)
	}
	return line
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
