package segment

import (
	"time"

	"github.com/penwyp/go-claude-latency/internal/core/constants"
	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/util"
)

// Config holds the segmenter settings and the labels copied onto each turn.
type Config struct {
	GapThreshold time.Duration
	TextWidth    int
	SessionID    string
	ProjectPath  string
	SourcePath   string
	Logger       util.LoggerInterface
}

// Stats counts what the segmenter saw and why events were not used.
type Stats struct {
	Events          int `json:"events"`
	Triggers        int `json:"triggers"`
	Emitted         int `json:"emitted"`
	Unanswered      int `json:"unanswered"`
	NegativeLatency int `json:"negativeLatency"`
	Continuations   int `json:"continuations"`
	Synthetic       int `json:"synthetic"`
	ToolResults     int `json:"toolResults"`
	EmptyTexts      int `json:"emptyTexts"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Events += other.Events
	s.Triggers += other.Triggers
	s.Emitted += other.Emitted
	s.Unanswered += other.Unanswered
	s.NegativeLatency += other.NegativeLatency
	s.Continuations += other.Continuations
	s.Synthetic += other.Synthetic
	s.ToolResults += other.ToolResults
	s.EmptyTexts += other.EmptyTexts
}

type burst struct {
	turn         model.Turn
	lastActivity time.Time
}

// Segmenter groups one log's ordered events into turns. It never fails:
// events that cannot take part in a turn are counted and dropped.
type Segmenter struct {
	cfg    Config
	state  State
	open   *burst
	turns  []model.Turn
	stats  Stats
	logger util.LoggerInterface
}

// New creates a Segmenter. Zero-valued settings fall back to defaults.
func New(cfg Config) *Segmenter {
	if cfg.GapThreshold <= 0 {
		cfg.GapThreshold = constants.GapThreshold
	}
	if cfg.TextWidth <= 0 {
		cfg.TextWidth = constants.TriggerTextWidth
	}
	logger := cfg.Logger
	if logger == nil {
		logger = util.NewNopLogger()
	}
	return &Segmenter{cfg: cfg, state: Seeking, logger: logger}
}

// Feed advances the state machine by one event.
func (s *Segmenter) Feed(ev model.LogEvent) {
	s.stats.Events++
	s.step(ev, Classify(ev))
}

func (s *Segmenter) step(ev model.LogEvent, q Qualification) {
	next, action := Transition(s.state, q, ev.Kind, s.gapExceeded(ev.Timestamp))

	switch action {
	case Skip:
		s.countSkip(q)
	case Open:
		s.openTurn(ev)
	case Extend:
		s.extend(ev)
	case KeepAlive:
		s.open.lastActivity = ev.Timestamp
	case Ignore:
	case Close:
		s.closeTurn()
		s.state = next
		s.step(ev, q)
		return
	}
	s.state = next
}

func (s *Segmenter) gapExceeded(ts time.Time) bool {
	if s.open == nil || s.open.turn.ActivityCount == 0 {
		return false
	}
	return ts.Sub(s.open.lastActivity) > s.cfg.GapThreshold
}

func (s *Segmenter) countSkip(q Qualification) {
	switch q {
	case Continuation:
		s.stats.Continuations++
	case SyntheticSystemText:
		s.stats.Synthetic++
	case ToolResultEcho:
		s.stats.ToolResults++
	case EmptyText:
		s.stats.EmptyTexts++
	}
}

func (s *Segmenter) openTurn(ev model.LogEvent) {
	s.stats.Triggers++
	sessionID := s.cfg.SessionID
	if sessionID == "" {
		sessionID = ev.SessionID
	}
	s.open = &burst{
		turn: model.Turn{
			SessionID:        sessionID,
			ProjectPath:      s.cfg.ProjectPath,
			SourcePath:       s.cfg.SourcePath,
			TriggerTimestamp: ev.Timestamp,
			TriggerText:      util.TruncateDisplay(UserText(ev.Payload), s.cfg.TextWidth),
		},
		lastActivity: ev.Timestamp,
	}
}

func (s *Segmenter) extend(ev model.LogEvent) {
	t := &s.open.turn
	if t.ActivityCount == 0 {
		t.FirstResponseTimestamp = ev.Timestamp
		t.LastResponseTimestamp = ev.Timestamp
	}
	if ev.Timestamp.After(t.LastResponseTimestamp) {
		t.LastResponseTimestamp = ev.Timestamp
	}
	t.ActivityCount++
	if p := ev.Payload; p != nil {
		t.ToolInvocationCount += p.ToolUseCount
		if t.Model == "" {
			t.Model = p.Model
		}
	}
	s.open.lastActivity = ev.Timestamp
}

func (s *Segmenter) closeTurn() {
	if s.open == nil {
		return
	}
	t := s.open.turn
	s.open = nil

	if t.ActivityCount == 0 {
		s.stats.Unanswered++
		return
	}
	if t.FirstResponseTimestamp.Before(t.TriggerTimestamp) {
		s.stats.NegativeLatency++
		s.logger.Debugf("Discard turn with negative latency %s in %s at %s",
			t.ResponseLatency(), t.SourcePath, t.TriggerTimestamp.Format(time.RFC3339))
		return
	}
	s.stats.Emitted++
	s.turns = append(s.turns, t)
}

// Finish closes any open burst and returns the turns in trigger order.
func (s *Segmenter) Finish() []model.Turn {
	s.closeTurn()
	s.state = Seeking
	turns := s.turns
	s.turns = nil
	return turns
}

// Stats returns the counters accumulated so far.
func (s *Segmenter) Stats() Stats {
	return s.stats
}

// Segment runs a fresh Segmenter over events.
func Segment(events []model.LogEvent, cfg Config) []model.Turn {
	seg := New(cfg)
	for _, ev := range events {
		seg.Feed(ev)
	}
	return seg.Finish()
}
