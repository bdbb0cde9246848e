package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-claude-latency/internal/data/store"
)

// FormatHistory renders recorded snapshots, most recent first, as a table,
// JSON or CSV.
func FormatHistory(w io.Writer, snapshots []store.Snapshot, format string) error {
	if snapshots == nil {
		snapshots = []store.Snapshot{}
	}
	return writeRecords(w, format, snapshots, func(cells cellFormat) grid {
		return historyGrid(snapshots, cells)
	})
}

// FormatSnapshotDays renders the daily rows stored with one snapshot.
func FormatSnapshotDays(w io.Writer, days []store.SnapshotDay, format string) error {
	if days == nil {
		days = []store.SnapshotDay{}
	}
	return writeRecords(w, format, days, func(cells cellFormat) grid {
		g := grid{
			headers: []string{"Date", "Turns", "Avg", "P50", "P90", "P99"},
			numeric: []bool{false, true, true, true, true, true},
		}
		for _, d := range days {
			g.rows = append(g.rows, []string{
				d.Date,
				cells.count(d.Turns),
				cells.average(d.AverageMs),
				cells.latency(d.P50),
				cells.latency(d.P90),
				cells.latency(d.P99),
			})
		}
		return g
	})
}

func writeRecords(w io.Writer, format string, records any, build func(cellFormat) grid) error {
	switch strings.ToLower(format) {
	case "", "table", "summary":
		return NewTableFormatter(Options{}).writeGrid(w, build(humanCells))
	case "json":
		data, err := sonic.ConfigStd.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case "csv":
		g := build(rawCells)
		writer := csv.NewWriter(w)
		if err := writer.Write(g.headers); err != nil {
			return err
		}
		if err := writer.WriteAll(g.rows); err != nil {
			return err
		}
		return writer.Error()
	default:
		return fmt.Errorf("unknown history format %q (expected table, json or csv)", format)
	}
}

func historyGrid(snapshots []store.Snapshot, cells cellFormat) grid {
	g := grid{
		headers: []string{"Taken", "Range", "Turns", "Sessions", "Avg", "P50", "P90", "P99", "Streak"},
		numeric: []bool{false, false, true, true, true, true, true, true, true},
	}
	for _, s := range snapshots {
		dateRange := s.FirstDate
		if s.LastDate != s.FirstDate {
			dateRange += ".." + s.LastDate
		}
		g.rows = append(g.rows, []string{
			s.TakenAt.Local().Format("2006-01-02 15:04"),
			dateRange,
			cells.count(s.TotalTurns),
			cells.count(s.UniqueSessions),
			cells.average(s.AverageMs),
			cells.latency(s.P50),
			cells.latency(s.P90),
			cells.latency(s.P99),
			strconv.Itoa(s.CurrentStreak),
		})
	}
	return g
}
