package model

// Log entry types as written in the "type" field.
const (
	EntryUser       = "user"
	EntryAssistant  = "assistant"
	EntrySystem     = "system"
	EntryToolResult = "tool_result"
	EntrySummary    = "summary"
)

// Content item types inside message.content.
const (
	ContentText       = "text"
	ContentToolUse    = "tool_use"
	ContentToolResult = "tool_result"
	ContentThinking   = "thinking"
	ContentImage      = "image"
)
