package model

import "time"

// Percentiles holds nearest-rank latency percentiles in milliseconds.
type Percentiles struct {
	P50 int64 `json:"p50"`
	P90 int64 `json:"p90"`
	P99 int64 `json:"p99"`
}

// DailyBucket aggregates the turns triggered on one calendar date.
type DailyBucket struct {
	Date             string      `json:"date"`
	Count            int         `json:"count"`
	TotalLatencyMs   int64       `json:"totalLatencyMs"`
	AverageLatencyMs float64     `json:"averageLatencyMs"`
	MinLatencyMs     int64       `json:"minLatencyMs"`
	MaxLatencyMs     int64       `json:"maxLatencyMs"`
	SessionIDs       []string    `json:"sessionIds"`
	Percentiles      Percentiles `json:"percentiles"`
	TotalBurstMs     int64       `json:"totalBurstMs"`
	ToolInvocations  int         `json:"toolInvocations"`
}

// SessionSummary aggregates the turns of one session.
type SessionSummary struct {
	SessionID        string      `json:"sessionId"`
	ProjectPath      string      `json:"projectPath"`
	TurnCount        int         `json:"turnCount"`
	TotalLatencyMs   int64       `json:"totalLatencyMs"`
	AverageLatencyMs float64     `json:"averageLatencyMs"`
	FirstTurnTime    time.Time   `json:"firstTurnTime"`
	LastTurnTime     time.Time   `json:"lastTurnTime"`
	Percentiles      Percentiles `json:"percentiles"`
}

// ModelSummary aggregates turns by the model that answered them.
type ModelSummary struct {
	Model            string      `json:"model"`
	TurnCount        int         `json:"turnCount"`
	TotalLatencyMs   int64       `json:"totalLatencyMs"`
	AverageLatencyMs float64     `json:"averageLatencyMs"`
	Percentiles      Percentiles `json:"percentiles"`
}

// GlobalSummary aggregates every turn. Dates are empty when there are no turns.
type GlobalSummary struct {
	TotalTurns       int         `json:"totalTurns"`
	TotalLatencyMs   int64       `json:"totalLatencyMs"`
	AverageLatencyMs float64     `json:"averageLatencyMs"`
	UniqueSessions   int         `json:"uniqueSessions"`
	FirstDate        string      `json:"firstDate"`
	LastDate         string      `json:"lastDate"`
	ActiveDays       int         `json:"activeDays"`
	Percentiles      Percentiles `json:"percentiles"`
	TotalBurstMs     int64       `json:"totalBurstMs"`
	ToolInvocations  int         `json:"toolInvocations"`
}

// Report is the output of a reduction, keyed by primitive strings.
type Report struct {
	Daily    map[string]DailyBucket    `json:"daily"`
	Sessions map[string]SessionSummary `json:"sessions"`
	Models   map[string]ModelSummary   `json:"models"`
	Summary  GlobalSummary             `json:"summary"`
}

// NewReport returns an empty report with non-nil maps.
func NewReport() *Report {
	return &Report{
		Daily:    make(map[string]DailyBucket),
		Sessions: make(map[string]SessionSummary),
		Models:   make(map[string]ModelSummary),
	}
}

// UsageStreak describes consecutive days of activity.
type UsageStreak struct {
	CurrentStreak  int    `json:"currentStreak"`
	LongestStreak  int    `json:"longestStreak"`
	LongestStart   string `json:"longestStart"`
	LongestEnd     string `json:"longestEnd"`
	TotalDaysUsed  int    `json:"totalDaysUsed"`
	LastActiveDate string `json:"lastActiveDate"`
}

// ProcessingStats counts what happened to files, lines and turns during one analysis.
type ProcessingStats struct {
	FilesScanned    int `json:"filesScanned"`
	FilesProcessed  int `json:"filesProcessed"`
	FilesFailed     int `json:"filesFailed"`
	FilesFromCache  int `json:"filesFromCache"`
	LinesRead       int `json:"linesRead"`
	LinesSkipped    int `json:"linesSkipped"`
	RecordsIgnored  int `json:"recordsIgnored"`
	TurnsFound      int `json:"turnsFound"`
	Unanswered      int `json:"unanswered"`
	NegativeLatency int `json:"negativeLatency"`
	OutsideWindow   int `json:"outsideWindow"`
	OutliersDropped int `json:"outliersDropped"`
}

// Analysis is everything a formatter needs to render one run.
type Analysis struct {
	Report      *Report         `json:"report"`
	Streak      UsageStreak     `json:"streak"`
	Stats       ProcessingStats `json:"stats"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Timezone    string          `json:"timezone"`
}
