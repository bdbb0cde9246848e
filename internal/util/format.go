package util

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatNumber renders n with thousands separators.
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatLatency renders a millisecond latency for humans:
// 850ms, 1.5s, 2m05s, 1h02m.
func FormatLatency(ms int64) string {
	return FormatLatencyFloat(float64(ms))
}

// FormatLatencyFloat is FormatLatency for averages.
func FormatLatencyFloat(ms float64) string {
	if ms < 0 || math.IsNaN(ms) {
		ms = 0
	}
	switch {
	case ms < 1000:
		return fmt.Sprintf("%.0fms", ms)
	case ms < 60*1000:
		return fmt.Sprintf("%.1fs", ms/1000)
	}

	d := time.Duration(ms) * time.Millisecond
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm%02ds", minutes, seconds)
}

// FormatDuration renders coarse durations such as a gap threshold.
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
