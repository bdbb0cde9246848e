package util

import (
	"fmt"
	"sync"
	"time"
)

// DateLayout is the calendar-date key used by every per-day grouping.
const DateLayout = "2006-01-02"

// TimeProvider resolves the configured timezone once and hands out
// timezone-aware times. It is passed explicitly to whoever needs it.
type TimeProvider struct {
	location *time.Location
	clock    func() time.Time
	mu       sync.RWMutex
}

// NewTimeProvider creates a provider for timezone ("" or "Local" means the
// machine's local zone).
func NewTimeProvider(timezone string) (*TimeProvider, error) {
	tp := &TimeProvider{clock: time.Now}
	if err := tp.SetTimezone(timezone); err != nil {
		return nil, err
	}
	return tp, nil
}

// SetTimezone updates the timezone for the time provider
func (tp *TimeProvider) SetTimezone(timezone string) error {
	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/New_York, Asia/Shanghai, Europe/London, Australia/Sydney", timezone, err)
		}
		loc = l
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.location = loc
	return nil
}

// SetClock replaces the wall clock, mainly for tests.
func (tp *TimeProvider) SetClock(clock func() time.Time) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.clock = clock
}

// Location returns the configured timezone.
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

// Now returns the current time in the configured timezone
func (tp *TimeProvider) Now() time.Time {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.clock().In(tp.location)
}

// In converts a time to the configured timezone
func (tp *TimeProvider) In(t time.Time) time.Time {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return t.In(tp.location)
}

// DateOf returns the calendar date of t in the configured timezone.
func (tp *TimeProvider) DateOf(t time.Time) string {
	return tp.In(t).Format(DateLayout)
}
