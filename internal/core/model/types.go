package model

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// ConversationLog is one raw line of a Claude Code session log.
type ConversationLog struct {
	Content                 string   `json:"content,omitempty"`
	Cwd                     string   `json:"cwd"`
	GitBranch               string   `json:"gitBranch,omitempty"`
	IsCompactSummary        bool     `json:"isCompactSummary,omitempty"`
	IsMeta                  bool     `json:"isMeta,omitempty"`
	IsSidechain             bool     `json:"isSidechain"`
	Message                 *Message `json:"message,omitempty"`
	ParentUuid              *string  `json:"parentUuid"`
	RequestId               string   `json:"requestId,omitempty"`
	SessionId               string   `json:"sessionId"`
	SourceToolAssistantUUID string   `json:"sourceToolAssistantUUID,omitempty"`
	Subtype                 string   `json:"subtype,omitempty"`
	Timestamp               string   `json:"timestamp"`
	ToolUseID               string   `json:"toolUseID,omitempty"`
	ToolUseResult           any      `json:"toolUseResult,omitempty"`
	Type                    string   `json:"type"`
	Uuid                    string   `json:"uuid"`
	Version                 string   `json:"version"`
}

type Message struct {
	Content    FlexibleContent `json:"content"`
	Id         string          `json:"id,omitempty"`
	Model      string          `json:"model,omitempty"`
	Role       string          `json:"role"`
	StopReason *string         `json:"stop_reason"`
	Type       string          `json:"type"`
	Usage      *Usage          `json:"usage,omitempty"`
}

// FlexibleContent accepts both a plain string and an array of content items.
type FlexibleContent []ContentItem

func (fc *FlexibleContent) UnmarshalJSON(data []byte) error {
	var items []ContentItem
	if err := sonic.Unmarshal(data, &items); err == nil {
		*fc = items
		return nil
	}

	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		*fc = []ContentItem{{Type: ContentText, Text: str}}
		return nil
	}

	return fmt.Errorf("content must be either string or array of ContentItem")
}

type ContentItem struct {
	Content   any    `json:"content,omitempty"`
	Id        string `json:"id,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
	Name      string `json:"name,omitempty"`
	Text      string `json:"text,omitempty"`
	ToolUseId string `json:"tool_use_id,omitempty"`
	Type      string `json:"type"`
}

// Usage is carried through untouched; the analytics never read it.
type Usage struct {
	CacheCreationInputTokens int            `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int            `json:"cache_read_input_tokens"`
	InputTokens              int            `json:"input_tokens"`
	OutputTokens             int            `json:"output_tokens"`
	ServerToolUse            *ServerToolUse `json:"server_tool_use,omitempty"`
	ServiceTier              string         `json:"service_tier,omitempty"`
}

type ServerToolUse struct {
	WebSearchRequests int `json:"web_search_requests"`
}
