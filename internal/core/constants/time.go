package constants

import "time"

const (
	// GapThreshold is the longest idle stretch inside one assistant burst.
	GapThreshold = 15 * time.Minute

	// DefaultLatencyCeiling drops turns whose first response took longer.
	DefaultLatencyCeiling = 5 * time.Minute

	// TriggerTextWidth bounds the display width of a turn's trigger text.
	TriggerTextWidth = 80

	// FingerprintSkipAge is the file age after which cache validation
	// trusts inode/size/mtime alone.
	FingerprintSkipAge = 48 * time.Hour
)
