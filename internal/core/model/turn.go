package model

import "time"

// Turn is one reconstructed user message and the assistant burst answering it.
// Timestamps always satisfy TriggerTimestamp <= FirstResponseTimestamp <= LastResponseTimestamp.
type Turn struct {
	SessionID              string    `json:"sessionId"`
	ProjectPath            string    `json:"projectPath"`
	SourcePath             string    `json:"sourcePath"`
	TriggerTimestamp       time.Time `json:"triggerTimestamp"`
	TriggerText            string    `json:"triggerText"`
	FirstResponseTimestamp time.Time `json:"firstResponseTimestamp"`
	LastResponseTimestamp  time.Time `json:"lastResponseTimestamp"`
	ActivityCount          int       `json:"activityCount"`
	ToolInvocationCount    int       `json:"toolInvocationCount"`
	Model                  string    `json:"model,omitempty"`
}

// ResponseLatency is the time from the trigger to the first assistant activity.
func (t Turn) ResponseLatency() time.Duration {
	return t.FirstResponseTimestamp.Sub(t.TriggerTimestamp)
}

// BurstDuration is the span of the assistant activity.
func (t Turn) BurstDuration() time.Duration {
	return t.LastResponseTimestamp.Sub(t.FirstResponseTimestamp)
}

// LatencyMs is ResponseLatency in whole milliseconds.
func (t Turn) LatencyMs() int64 {
	return t.ResponseLatency().Milliseconds()
}
