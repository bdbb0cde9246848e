package segment

import "github.com/penwyp/go-claude-latency/internal/core/model"

// State is the segmenter's position relative to a turn.
type State int

const (
	// Seeking scans for the next genuine user message.
	Seeking State = iota
	// InBurst collects the assistant activity answering the open trigger.
	InBurst
)

func (s State) String() string {
	if s == InBurst {
		return "in_burst"
	}
	return "seeking"
}

// Action is what the segmenter does with the event that caused a transition.
type Action int

const (
	// Skip drops the event while seeking.
	Skip Action = iota
	// Open records the event as the trigger of a new turn.
	Open
	// Extend counts the event as assistant activity.
	Extend
	// KeepAlive resets the gap clock without counting as activity.
	KeepAlive
	// Ignore drops the event inside a burst.
	Ignore
	// Close ends the burst before the event; the same event is then
	// evaluated again in the Seeking state.
	Close
)

func (a Action) String() string {
	switch a {
	case Skip:
		return "skip"
	case Open:
		return "open"
	case Extend:
		return "extend"
	case KeepAlive:
		return "keep_alive"
	case Ignore:
		return "ignore"
	case Close:
		return "close"
	default:
		return "unknown"
	}
}

// Transition is the segmenter's whole decision table. gapExceeded must be
// true only when the burst already has assistant activity and the event
// is further than the gap threshold from the previous activity.
func Transition(state State, q Qualification, kind model.EventKind, gapExceeded bool) (State, Action) {
	if state == Seeking {
		if q == Qualifies {
			return InBurst, Open
		}
		return Seeking, Skip
	}

	switch {
	case q == Qualifies:
		return Seeking, Close
	case kind == model.KindAssistantMessage:
		if gapExceeded {
			return Seeking, Close
		}
		return InBurst, Extend
	case q == ToolResultEcho:
		if gapExceeded {
			return Seeking, Close
		}
		return InBurst, KeepAlive
	default:
		return InBurst, Ignore
	}
}
