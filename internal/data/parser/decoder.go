package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-claude-latency/internal/core/model"
)

// Rejection reasons returned by Decode. Callers count them; none is fatal.
var (
	ErrBlankLine        = errors.New("blank line")
	ErrMalformedLine    = errors.New("malformed record")
	ErrMissingKind      = errors.New("record has no type")
	ErrMissingTimestamp = errors.New("record has no usable timestamp")
	ErrUnknownKind      = errors.New("unrecognized record type")
)

const continuationPrefix = "This session is being continued from a previous conversation"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Decode turns one raw log line into a LogEvent. It is a pure function of
// its input: the same line always yields the same event or the same error.
func Decode(line []byte) (model.LogEvent, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return model.LogEvent{}, ErrBlankLine
	}

	var raw model.ConversationLog
	if err := sonic.Unmarshal(trimmed, &raw); err != nil {
		return model.LogEvent{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}

	if raw.Type == "" {
		return model.LogEvent{}, ErrMissingKind
	}
	// Summary and snapshot records have no timestamp and count as unrecognized.
	kind, ok := kindOf(raw.Type)
	if !ok {
		return model.LogEvent{}, ErrUnknownKind
	}
	ts, ok := ParseTimestamp(raw.Timestamp)
	if !ok {
		return model.LogEvent{}, ErrMissingTimestamp
	}

	payload := buildPayload(&raw)
	event := model.LogEvent{
		Kind:      kind,
		Timestamp: ts,
		Payload:   payload,
		SessionID: raw.SessionId,
		Cwd:       raw.Cwd,
	}
	event.IsContinuationMarker = raw.IsCompactSummary ||
		(kind == model.KindUserMessage && startsWithContinuation(payload))

	return event, nil
}

// ParseTimestamp accepts the timestamp layouts seen in session logs.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func kindOf(entryType string) (model.EventKind, bool) {
	switch entryType {
	case model.EntryUser:
		return model.KindUserMessage, true
	case model.EntryAssistant:
		return model.KindAssistantMessage, true
	case model.EntryToolResult:
		return model.KindToolResult, true
	case model.EntrySystem:
		return model.KindSystemNote, true
	default:
		return 0, false
	}
}

func buildPayload(raw *model.ConversationLog) *model.Payload {
	p := &model.Payload{
		IsMeta:      raw.IsMeta,
		IsSidechain: raw.IsSidechain,
		ToolUseID:   raw.ToolUseID,
	}
	if p.ToolUseID == "" {
		p.ToolUseID = raw.SourceToolAssistantUUID
	}

	hasContent := false
	if msg := raw.Message; msg != nil {
		p.Role = msg.Role
		p.Model = msg.Model
		p.Usage = msg.Usage
		for _, item := range msg.Content {
			hasContent = true
			switch item.Type {
			case model.ContentText:
				p.Texts = append(p.Texts, item.Text)
			case model.ContentToolUse:
				p.ToolUseCount++
			case model.ContentToolResult:
				p.ToolResultCount++
				if p.ToolUseID == "" {
					p.ToolUseID = item.ToolUseId
				}
			}
		}
	} else if raw.Content != "" {
		hasContent = true
		p.Texts = append(p.Texts, raw.Content)
	}

	if raw.ToolUseResult != nil && p.ToolResultCount == 0 && raw.Type == model.EntryUser {
		p.ToolResultCount = 1
	}

	if !hasContent && p.Usage == nil && p.ToolUseID == "" && p.ToolResultCount == 0 && !p.IsMeta && !p.IsSidechain {
		return nil
	}
	return p
}

func startsWithContinuation(p *model.Payload) bool {
	if p == nil {
		return false
	}
	for _, text := range p.Texts {
		if strings.HasPrefix(strings.TrimSpace(text), continuationPrefix) {
			return true
		}
	}
	return false
}
