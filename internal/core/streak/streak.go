// Package streak measures runs of consecutive days with activity.
package streak

import (
	"sort"
	"time"

	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/util"
)

const day = 24 * time.Hour

// Analyze finds the longest and the current run of consecutive active days.
// Instants are reduced to calendar dates in loc; the current streak counts
// only when its last day is today or yesterday relative to now.
func Analyze(instants []time.Time, now time.Time, loc *time.Location) model.UsageStreak {
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[time.Time]struct{}, len(instants))
	for _, ts := range instants {
		if ts.IsZero() {
			continue
		}
		seen[civilDate(ts, loc)] = struct{}{}
	}
	if len(seen) == 0 {
		return model.UsageStreak{}
	}

	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var result model.UsageStreak
	result.TotalDaysUsed = len(days)

	runStart, runLen := 0, 1
	longestStart, longest := 0, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == day {
			runLen++
		} else {
			runStart, runLen = i, 1
		}
		if runLen > longest {
			longestStart, longest = runStart, runLen
		}
	}

	result.LongestStreak = longest
	result.LongestStart = days[longestStart].Format(util.DateLayout)
	result.LongestEnd = days[longestStart+longest-1].Format(util.DateLayout)

	last := days[len(days)-1]
	result.LastActiveDate = last.Format(util.DateLayout)
	today := civilDate(now, loc)
	if last.Equal(today) || last.Equal(today.Add(-day)) {
		result.CurrentStreak = runLen
	}
	return result
}

// civilDate maps ts to midnight UTC of its calendar date in loc, so that
// consecutive dates are exactly 24h apart regardless of DST.
func civilDate(ts time.Time, loc *time.Location) time.Time {
	y, m, d := ts.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
