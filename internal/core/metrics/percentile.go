package metrics

import (
	"math"
	"slices"

	"github.com/penwyp/go-claude-latency/internal/core/model"
)

// Percentile returns the nearest-rank percentile of an ascending slice:
// the element at index ceil(p*n/100)-1, clamped to the slice bounds.
// An empty slice yields 0.
func Percentile(sorted []int64, p float64) int64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(n)/100)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// percentilesOf sorts latencies in place and extracts P50, P90 and P99.
func percentilesOf(latencies []int64) model.Percentiles {
	slices.Sort(latencies)
	return model.Percentiles{
		P50: Percentile(latencies, 50),
		P90: Percentile(latencies, 90),
		P99: Percentile(latencies, 99),
	}
}

func mean(total int64, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}
