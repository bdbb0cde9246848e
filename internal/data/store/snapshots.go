package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/penwyp/go-claude-latency/internal/core/model"
)

// Snapshot is the headline numbers of one recorded analysis.
type Snapshot struct {
	RunID          string    `json:"runId"`
	TakenAt        time.Time `json:"takenAt"`
	Timezone       string    `json:"timezone"`
	TotalTurns     int       `json:"totalTurns"`
	UniqueSessions int       `json:"uniqueSessions"`
	AverageMs      float64   `json:"averageLatencyMs"`
	P50            int64     `json:"p50"`
	P90            int64     `json:"p90"`
	P99            int64     `json:"p99"`
	FirstDate      string    `json:"firstDate"`
	LastDate       string    `json:"lastDate"`
	CurrentStreak  int       `json:"currentStreak"`
	LongestStreak  int       `json:"longestStreak"`
	FilesProcessed int       `json:"filesProcessed"`
	LinesSkipped   int       `json:"linesSkipped"`
}

// SnapshotDay is one daily bucket stored with a snapshot.
type SnapshotDay struct {
	Date      string  `json:"date"`
	Turns     int     `json:"turns"`
	AverageMs float64 `json:"averageLatencyMs"`
	P50       int64   `json:"p50"`
	P90       int64   `json:"p90"`
	P99       int64   `json:"p99"`
}

// RecordSnapshot stores a's summary and daily buckets under a new run id.
func (db *DB) RecordSnapshot(a *model.Analysis) (string, error) {
	runID := uuid.New().String()
	sum := a.Report.Summary

	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshots
		(run_id, taken_at, timezone, total_turns, unique_sessions, avg_latency_ms,
		 p50_ms, p90_ms, p99_ms, first_date, last_date, current_streak, longest_streak,
		 files_processed, lines_skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, a.GeneratedAt.UTC().Format(time.RFC3339Nano), a.Timezone,
		sum.TotalTurns, sum.UniqueSessions, sum.AverageLatencyMs,
		sum.Percentiles.P50, sum.Percentiles.P90, sum.Percentiles.P99,
		sum.FirstDate, sum.LastDate, a.Streak.CurrentStreak, a.Streak.LongestStreak,
		a.Stats.FilesProcessed, a.Stats.LinesSkipped,
	)
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO snapshot_days (run_id, date, turns, avg_latency_ms, p50_ms, p90_ms, p99_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, b := range a.Report.Daily {
		if _, err := stmt.Exec(runID, b.Date, b.Count, b.AverageLatencyMs,
			b.Percentiles.P50, b.Percentiles.P90, b.Percentiles.P99); err != nil {
			return "", fmt.Errorf("insert snapshot day %s: %w", b.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// ListSnapshots returns up to n snapshots, most recent first. n <= 0 returns all.
func (db *DB) ListSnapshots(n int) ([]Snapshot, error) {
	if n <= 0 {
		n = -1
	}
	rows, err := db.conn.Query(
		`SELECT run_id, taken_at, timezone, total_turns, unique_sessions, avg_latency_ms,
		        p50_ms, p90_ms, p99_ms, first_date, last_date, current_streak, longest_streak,
		        files_processed, lines_skipped
		FROM snapshots ORDER BY taken_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		var takenAt string
		var firstDate, lastDate sql.NullString
		if err := rows.Scan(&s.RunID, &takenAt, &s.Timezone, &s.TotalTurns, &s.UniqueSessions,
			&s.AverageMs, &s.P50, &s.P90, &s.P99, &firstDate, &lastDate,
			&s.CurrentStreak, &s.LongestStreak, &s.FilesProcessed, &s.LinesSkipped); err != nil {
			return nil, err
		}
		s.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)
		s.FirstDate = firstDate.String
		s.LastDate = lastDate.String
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// SnapshotDays returns the daily buckets stored for runID in date order.
func (db *DB) SnapshotDays(runID string) ([]SnapshotDay, error) {
	rows, err := db.conn.Query(
		`SELECT date, turns, avg_latency_ms, p50_ms, p90_ms, p99_ms
		FROM snapshot_days WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []SnapshotDay
	for rows.Next() {
		var d SnapshotDay
		if err := rows.Scan(&d.Date, &d.Turns, &d.AverageMs, &d.P50, &d.P90, &d.P99); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
