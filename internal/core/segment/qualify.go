package segment

import (
	"strings"

	"github.com/penwyp/go-claude-latency/internal/core/model"
)

// Qualification is the outcome of asking whether an event is genuine user input.
type Qualification int

const (
	Qualifies Qualification = iota
	Continuation
	SyntheticSystemText
	ToolResultEcho
	EmptyText
	// NotUserInput covers assistant and system events.
	NotUserInput
)

func (q Qualification) String() string {
	switch q {
	case Qualifies:
		return "qualifies"
	case Continuation:
		return "continuation"
	case SyntheticSystemText:
		return "synthetic"
	case ToolResultEcho:
		return "tool_result"
	case EmptyText:
		return "empty"
	case NotUserInput:
		return "not_user_input"
	default:
		return "unknown"
	}
}

// syntheticMarkers open text blocks that the client injects on the user's behalf.
var syntheticMarkers = []string{
	"<command-name>",
	"<command-message>",
	"<command-args>",
	"<local-command-stdout>",
	"<local-command-stderr>",
	"<local-command-caveat>",
	"<system-reminder>",
	"<user-prompt-submit-hook>",
	"<environment_context>",
	"<bash-input>",
	"<bash-stdout>",
	"<bash-stderr>",
	"Caveat: The messages below were generated by the user",
	"[Request interrupted by user",
}

// Classify decides whether ev can open a turn, and if not, why.
func Classify(ev model.LogEvent) Qualification {
	switch ev.Kind {
	case model.KindToolResult:
		return ToolResultEcho
	case model.KindUserMessage:
	default:
		return NotUserInput
	}

	if ev.IsContinuationMarker {
		return Continuation
	}
	p := ev.Payload
	if p == nil {
		return EmptyText
	}
	if p.IsToolResult() {
		return ToolResultEcho
	}
	if p.IsMeta || p.IsSidechain {
		return SyntheticSystemText
	}

	genuine := 0
	for _, text := range p.Texts {
		if !IsSyntheticText(text) {
			genuine++
		}
	}
	if len(p.Texts) > 0 && genuine == 0 {
		return SyntheticSystemText
	}

	if UserText(p) == "" {
		return EmptyText
	}
	return Qualifies
}

// IsSyntheticText reports whether a text block starts with an injected marker.
func IsSyntheticText(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, marker := range syntheticMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

// UserText joins the non-synthetic text blocks of p with whitespace collapsed.
func UserText(p *model.Payload) string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, len(p.Texts))
	for _, text := range p.Texts {
		if IsSyntheticText(text) {
			continue
		}
		if normalized := NormalizeText(text); normalized != "" {
			parts = append(parts, normalized)
		}
	}
	return strings.Join(parts, " ")
}

// NormalizeText trims text and collapses every whitespace run to one space.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
