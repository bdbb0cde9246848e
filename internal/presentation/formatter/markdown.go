package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/util"
)

// MarkdownFormatter renders a report suitable for pasting into notes or issues.
type MarkdownFormatter struct {
	opts Options
}

func NewMarkdownFormatter(opts Options) *MarkdownFormatter {
	return &MarkdownFormatter{opts: opts}
}

func (f *MarkdownFormatter) Format(w io.Writer, a *model.Analysis) error {
	var sb strings.Builder
	sum := a.Report.Summary

	sb.WriteString("# Claude Response Latency Report\n\n")
	fmt.Fprintf(&sb, "_Generated %s (%s)_\n\n", a.GeneratedAt.Format("2006-01-02 15:04"), a.Timezone)

	sb.WriteString("## Summary\n\n")
	if sum.TotalTurns == 0 {
		sb.WriteString("No answered turns found.\n\n")
	} else {
		fmt.Fprintf(&sb, "- **Date range:** %s to %s\n", sum.FirstDate, sum.LastDate)
		fmt.Fprintf(&sb, "- **Turns:** %s across %s sessions\n",
			util.FormatNumber(int64(sum.TotalTurns)), util.FormatNumber(int64(sum.UniqueSessions)))
		fmt.Fprintf(&sb, "- **Average latency:** %s\n", util.FormatLatencyFloat(sum.AverageLatencyMs))
		fmt.Fprintf(&sb, "- **P50 / P90 / P99:** %s / %s / %s\n\n",
			util.FormatLatency(sum.Percentiles.P50),
			util.FormatLatency(sum.Percentiles.P90),
			util.FormatLatency(sum.Percentiles.P99))
	}

	title := map[string]string{
		ViewDaily:    "Daily Breakdown",
		ViewSessions: "Sessions",
		ViewModels:   "Models",
	}[f.opts.View]
	g := buildGrid(a, f.opts.View, f.opts.Limit, humanCells)
	if len(g.rows) > 0 {
		fmt.Fprintf(&sb, "## %s\n\n", title)
		writeMarkdownTable(&sb, g)
		sb.WriteString("\n")
	}

	st := a.Streak
	sb.WriteString("## Streaks & Trends\n\n")
	fmt.Fprintf(&sb, "- **Current streak:** %s\n", pluralDays(st.CurrentStreak))
	fmt.Fprintf(&sb, "- **Longest streak:** %s", pluralDays(st.LongestStreak))
	if st.LongestStreak > 0 {
		fmt.Fprintf(&sb, " (%s to %s)", st.LongestStart, st.LongestEnd)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "- **Days used:** %d\n", st.TotalDaysUsed)
	fmt.Fprintf(&sb, "\n_%s_\n", ProcessingLine(a.Stats))

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeMarkdownTable(sb *strings.Builder, g grid) {
	sb.WriteString("| " + strings.Join(g.headers, " | ") + " |\n")
	sb.WriteString("|")
	for i := range g.headers {
		if g.numeric[i] {
			sb.WriteString("---:|")
		} else {
			sb.WriteString("---|")
		}
	}
	sb.WriteString("\n")
	for _, row := range g.rows {
		escaped := make([]string, len(row))
		for i, cell := range row {
			escaped[i] = strings.ReplaceAll(cell, "|", `\|`)
		}
		sb.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
	}
	if g.totals != nil {
		bold := make([]string, len(g.totals))
		for i, cell := range g.totals {
			if cell != "" {
				bold[i] = "**" + cell + "**"
			}
		}
		sb.WriteString("| " + strings.Join(bold, " | ") + " |\n")
	}
}
