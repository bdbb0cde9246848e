package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-claude-latency/internal/core/model"
)

func sampleAnalysis(at time.Time, turns int) *model.Analysis {
	report := model.NewReport()
	report.Daily["2025-01-02"] = model.DailyBucket{
		Date: "2025-01-02", Count: turns, AverageLatencyMs: 1350,
		Percentiles: model.Percentiles{P50: 1200, P90: 1500, P99: 1500},
	}
	report.Daily["2025-01-01"] = model.DailyBucket{
		Date: "2025-01-01", Count: 1, AverageLatencyMs: 900,
		Percentiles: model.Percentiles{P50: 900, P90: 900, P99: 900},
	}
	report.Summary = model.GlobalSummary{
		TotalTurns: turns + 1, UniqueSessions: 2, AverageLatencyMs: 1200,
		FirstDate: "2025-01-01", LastDate: "2025-01-02",
		Percentiles: model.Percentiles{P50: 1200, P90: 1500, P99: 1500},
	}
	return &model.Analysis{
		Report:      report,
		Streak:      model.UsageStreak{CurrentStreak: 2, LongestStreak: 2},
		Stats:       model.ProcessingStats{FilesProcessed: 3, LinesSkipped: 1},
		GeneratedAt: at,
		Timezone:    "UTC",
	}
}

func TestOpenInMemoryMigrates(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	version, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	require.NoError(t, db.Migrate(), "migrations are idempotent")
}

func TestRecordAndListSnapshots(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	first := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	id1, err := db.RecordSnapshot(sampleAnalysis(first, 2))
	require.NoError(t, err)
	id2, err := db.RecordSnapshot(sampleAnalysis(first.Add(time.Hour), 5))
	require.NoError(t, err)

	_, err = uuid.Parse(id1)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	snapshots, err := db.ListSnapshots(10)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, id2, snapshots[0].RunID)
	assert.Equal(t, 6, snapshots[0].TotalTurns)
	assert.Equal(t, int64(1500), snapshots[0].P90)
	assert.Equal(t, "2025-01-01", snapshots[0].FirstDate)
	assert.Equal(t, 3, snapshots[0].FilesProcessed)
	assert.True(t, snapshots[1].TakenAt.Equal(first))

	limited, err := db.ListSnapshots(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSnapshotDays(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	id, err := db.RecordSnapshot(sampleAnalysis(time.Now(), 2))
	require.NoError(t, err)

	days, err := db.SnapshotDays(id)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-01-01", days[0].Date)
	assert.Equal(t, "2025-01-02", days[1].Date)
	assert.Equal(t, 2, days[1].Turns)
	assert.Equal(t, 1350.0, days[1].AverageMs)

	none, err := db.SnapshotDays("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.RecordSnapshot(sampleAnalysis(time.Now(), 1))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	snapshots, err := reopened.ListSnapshots(0)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)
}
