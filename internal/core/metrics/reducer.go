package metrics

import (
	"sort"
	"time"

	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/util"
)

// Reducer rolls turns up into daily, per-session, per-model and global statistics.
type Reducer struct {
	loc *time.Location
}

// NewReducer creates a Reducer that buckets dates in loc (UTC when nil).
func NewReducer(loc *time.Location) *Reducer {
	if loc == nil {
		loc = time.UTC
	}
	return &Reducer{loc: loc}
}

type accumulator struct {
	count     int
	total     int64
	burst     int64
	tools     int
	latencies []int64
	min, max  int64
}

func (a *accumulator) add(t model.Turn) {
	ms := t.LatencyMs()
	if a.count == 0 || ms < a.min {
		a.min = ms
	}
	if a.count == 0 || ms > a.max {
		a.max = ms
	}
	a.count++
	a.total += ms
	a.burst += t.BurstDuration().Milliseconds()
	a.tools += t.ToolInvocationCount
	a.latencies = append(a.latencies, ms)
}

// Reduce aggregates turns. Each grouping is computed independently, so the
// order of turns does not matter. The returned maps are never nil.
func (r *Reducer) Reduce(turns []model.Turn) *model.Report {
	report := model.NewReport()
	if len(turns) == 0 {
		return report
	}

	daily := make(map[string]*accumulator)
	dailySessions := make(map[string]map[string]struct{})
	sessions := make(map[string]*accumulator)
	sessionInfo := make(map[string]*model.SessionSummary)
	models := make(map[string]*accumulator)
	global := &accumulator{}

	for _, t := range turns {
		date := t.TriggerTimestamp.In(r.loc).Format(util.DateLayout)
		accumulatorFor(daily, date).add(t)
		if dailySessions[date] == nil {
			dailySessions[date] = make(map[string]struct{})
		}
		dailySessions[date][t.SessionID] = struct{}{}

		accumulatorFor(sessions, t.SessionID).add(t)
		info, ok := sessionInfo[t.SessionID]
		if !ok {
			info = &model.SessionSummary{
				SessionID:     t.SessionID,
				ProjectPath:   t.ProjectPath,
				FirstTurnTime: t.TriggerTimestamp,
				LastTurnTime:  t.TriggerTimestamp,
			}
			sessionInfo[t.SessionID] = info
		}
		if t.TriggerTimestamp.Before(info.FirstTurnTime) {
			info.FirstTurnTime = t.TriggerTimestamp
		}
		if t.TriggerTimestamp.After(info.LastTurnTime) {
			info.LastTurnTime = t.TriggerTimestamp
		}

		accumulatorFor(models, util.SimplifyModelName(t.Model)).add(t)
		global.add(t)
	}

	dates := make([]string, 0, len(daily))
	for date, acc := range daily {
		dates = append(dates, date)
		ids := make([]string, 0, len(dailySessions[date]))
		for id := range dailySessions[date] {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		report.Daily[date] = model.DailyBucket{
			Date:             date,
			Count:            acc.count,
			TotalLatencyMs:   acc.total,
			AverageLatencyMs: mean(acc.total, acc.count),
			MinLatencyMs:     acc.min,
			MaxLatencyMs:     acc.max,
			SessionIDs:       ids,
			Percentiles:      percentilesOf(acc.latencies),
			TotalBurstMs:     acc.burst,
			ToolInvocations:  acc.tools,
		}
	}
	sort.Strings(dates)

	for id, acc := range sessions {
		summary := *sessionInfo[id]
		summary.TurnCount = acc.count
		summary.TotalLatencyMs = acc.total
		summary.AverageLatencyMs = mean(acc.total, acc.count)
		summary.Percentiles = percentilesOf(acc.latencies)
		report.Sessions[id] = summary
	}

	for name, acc := range models {
		report.Models[name] = model.ModelSummary{
			Model:            name,
			TurnCount:        acc.count,
			TotalLatencyMs:   acc.total,
			AverageLatencyMs: mean(acc.total, acc.count),
			Percentiles:      percentilesOf(acc.latencies),
		}
	}

	report.Summary = model.GlobalSummary{
		TotalTurns:       global.count,
		TotalLatencyMs:   global.total,
		AverageLatencyMs: mean(global.total, global.count),
		UniqueSessions:   len(sessions),
		FirstDate:        dates[0],
		LastDate:         dates[len(dates)-1],
		ActiveDays:       len(dates),
		Percentiles:      percentilesOf(global.latencies),
		TotalBurstMs:     global.burst,
		ToolInvocations:  global.tools,
	}
	return report
}

func accumulatorFor(m map[string]*accumulator, key string) *accumulator {
	acc, ok := m[key]
	if !ok {
		acc = &accumulator{}
		m[key] = acc
	}
	return acc
}
