package model

import "time"

// EventKind classifies a decoded log record.
type EventKind int

const (
	KindUserMessage EventKind = iota + 1
	KindAssistantMessage
	KindToolResult
	KindSystemNote
)

func (k EventKind) String() string {
	switch k {
	case KindUserMessage:
		return "user"
	case KindAssistantMessage:
		return "assistant"
	case KindToolResult:
		return "tool_result"
	case KindSystemNote:
		return "system"
	default:
		return "unknown"
	}
}

// LogEvent is one decoded log record. It is never mutated after decoding.
type LogEvent struct {
	Kind                 EventKind
	Timestamp            time.Time
	Payload              *Payload
	IsContinuationMarker bool
	SessionID            string
	Cwd                  string
	Line                 int
}

// Payload is the content of a record, when it has any.
type Payload struct {
	Role  string
	Model string
	// Texts holds the text blocks in order; a plain string message is one block.
	Texts           []string
	ToolUseCount    int
	ToolResultCount int
	// ToolUseID correlates a tool result with the call that produced it.
	ToolUseID   string
	IsMeta      bool
	IsSidechain bool
	Usage       *Usage
}

// IsToolResult reports whether the payload is structurally a tool result.
func (p *Payload) IsToolResult() bool {
	return p != nil && (p.ToolResultCount > 0 || p.ToolUseID != "")
}

// FileEvent represents a file system change seen by the watcher.
type FileEvent struct {
	Path      string
	Operation string
}
