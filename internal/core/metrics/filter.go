package metrics

import (
	"time"

	"github.com/penwyp/go-claude-latency/internal/core/model"
)

// FilterOutliers drops turns whose response latency exceeds ceiling.
// A ceiling of zero or less keeps everything.
func FilterOutliers(turns []model.Turn, ceiling time.Duration) ([]model.Turn, int) {
	if ceiling <= 0 {
		return turns, 0
	}
	kept := make([]model.Turn, 0, len(turns))
	for _, t := range turns {
		if t.ResponseLatency() > ceiling {
			continue
		}
		kept = append(kept, t)
	}
	return kept, len(turns) - len(kept)
}

// FilterSince keeps turns triggered at or after from. A zero from keeps everything.
func FilterSince(turns []model.Turn, from time.Time) ([]model.Turn, int) {
	if from.IsZero() {
		return turns, 0
	}
	kept := make([]model.Turn, 0, len(turns))
	for _, t := range turns {
		if t.TriggerTimestamp.Before(from) {
			continue
		}
		kept = append(kept, t)
	}
	return kept, len(turns) - len(kept)
}
