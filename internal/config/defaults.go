package config

import (
	"github.com/penwyp/go-claude-latency/internal/core/constants"
)

// Default values for every configuration key.
const (
	DefaultConfigDir = "~/.go-claude-latency"
	DefaultDataDir   = "~/.claude/projects"
	DefaultDBName    = "history.db"
	DefaultLogFile   = "logs/app.log"
	DefaultFormat    = "table"
	DefaultView      = "daily"
	DefaultLogLevel  = "info"
	DefaultDebounce  = "2s"
)

var (
	DefaultGapThreshold   = constants.GapThreshold.String()
	DefaultLatencyCeiling = constants.DefaultLatencyCeiling.String()
)
