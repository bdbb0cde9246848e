package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// JSONLEntry represents a single JSONL log entry in Claude Code format
type JSONLEntry struct {
	Type             string   `json:"type"`
	Timestamp        string   `json:"timestamp,omitempty"`
	Uuid             string   `json:"uuid"`
	SessionId        string   `json:"sessionId"`
	Cwd              string   `json:"cwd,omitempty"`
	Version          string   `json:"version"`
	IsMeta           bool     `json:"isMeta,omitempty"`
	IsCompactSummary bool     `json:"isCompactSummary,omitempty"`
	Content          string   `json:"content,omitempty"`
	ToolUseResult    any      `json:"toolUseResult,omitempty"`
	Message          *Message `json:"message,omitempty"`
}

// Message represents the message structure in Claude Code logs
type Message struct {
	Role    string `json:"role"`
	Model   string `json:"model,omitempty"`
	Content any    `json:"content"`
	Usage   *Usage `json:"usage,omitempty"`
}

// ContentBlock is one element of an array-form message content.
type ContentBlock struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Id        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	ToolUseId string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// Usage represents token usage in Claude Code logs
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

// DefaultModel is the model recorded on generated assistant entries.
const DefaultModel = "claude-sonnet-4-20250514"

// SessionBuilder writes a session log entry by entry on a moving clock.
type SessionBuilder struct {
	sessionID string
	cwd       string
	clock     time.Time
	seq       int
	lines     []string
	err       error
}

// NewSession starts a session whose first entry is stamped at start.
func NewSession(sessionID string, start time.Time) *SessionBuilder {
	return &SessionBuilder{sessionID: sessionID, cwd: "/work/" + sessionID, clock: start}
}

// Cwd sets the working directory recorded on subsequent entries.
func (b *SessionBuilder) Cwd(cwd string) *SessionBuilder {
	b.cwd = cwd
	return b
}

// After advances the clock before the next entry.
func (b *SessionBuilder) After(d time.Duration) *SessionBuilder {
	b.clock = b.clock.Add(d)
	return b
}

// User appends a genuine user prompt.
func (b *SessionBuilder) User(text string) *SessionBuilder {
	return b.add(b.entry("user", &Message{Role: "user", Content: text}))
}

// Assistant appends an assistant message making tools tool calls.
func (b *SessionBuilder) Assistant(text string, tools int) *SessionBuilder {
	blocks := []ContentBlock{{Type: "text", Text: text}}
	for i := 0; i < tools; i++ {
		blocks = append(blocks, ContentBlock{Type: "tool_use", Id: b.toolID(i), Name: "Read"})
	}
	return b.add(b.entry("assistant", &Message{
		Role:    "assistant",
		Model:   DefaultModel,
		Content: blocks,
		Usage:   &Usage{InputTokens: 100, OutputTokens: 50},
	}))
}

// ToolResult appends the user-kind echo of a tool call's output.
func (b *SessionBuilder) ToolResult(output string) *SessionBuilder {
	e := b.entry("user", &Message{Role: "user", Content: []ContentBlock{
		{Type: "tool_result", ToolUseId: b.toolID(0), Content: output},
	}})
	e.ToolUseResult = map[string]string{"stdout": output}
	return b.add(e)
}

// Continuation appends a context-compaction summary.
func (b *SessionBuilder) Continuation() *SessionBuilder {
	e := b.entry("user", &Message{Role: "user",
		Content: "This session is being continued from a previous conversation that ran out of context."})
	e.IsCompactSummary = true
	return b.add(e)
}

// Command appends the echo of a slash command.
func (b *SessionBuilder) Command(name string) *SessionBuilder {
	return b.add(b.entry("user", &Message{Role: "user",
		Content: fmt.Sprintf("<command-name>%s</command-name>\n<command-message>%s</command-message>", name, strings.TrimPrefix(name, "/"))}))
}

// Reminder appends a meta entry carrying a system reminder.
func (b *SessionBuilder) Reminder(text string) *SessionBuilder {
	e := b.entry("user", &Message{Role: "user", Content: "<system-reminder>" + text + "</system-reminder>"})
	e.IsMeta = true
	return b.add(e)
}

// System appends a system note.
func (b *SessionBuilder) System(text string) *SessionBuilder {
	e := b.entry("system", nil)
	e.Content = text
	return b.add(e)
}

// Summary appends a title summary record, which carries no timestamp.
func (b *SessionBuilder) Summary(text string) *SessionBuilder {
	return b.Raw(fmt.Sprintf(`{"type":"summary","summary":%q,"leafUuid":"leaf-%s"}`, text, b.sessionID))
}

// Raw appends a line verbatim, for malformed input.
func (b *SessionBuilder) Raw(line string) *SessionBuilder {
	b.lines = append(b.lines, line)
	return b
}

// Bytes returns the session as JSONL.
func (b *SessionBuilder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return []byte(strings.Join(b.lines, "\n") + "\n"), nil
}

func (b *SessionBuilder) toolID(i int) string {
	return fmt.Sprintf("toolu_%s_%d_%d", b.sessionID, b.seq, i)
}

func (b *SessionBuilder) entry(entryType string, msg *Message) *JSONLEntry {
	b.seq++
	return &JSONLEntry{
		Type:      entryType,
		Timestamp: b.clock.UTC().Format(time.RFC3339Nano),
		Uuid:      fmt.Sprintf("%s-%04d", b.sessionID, b.seq),
		SessionId: b.sessionID,
		Cwd:       b.cwd,
		Version:   "1.0.0",
		Message:   msg,
	}
}

func (b *SessionBuilder) add(e *JSONLEntry) *SessionBuilder {
	data, err := sonic.Marshal(e)
	if err != nil && b.err == nil {
		b.err = err
	}
	b.lines = append(b.lines, string(data))
	return b
}

// TestDataGenerator writes session logs in the Claude projects layout.
type TestDataGenerator struct {
	baseDir string
}

// NewTestDataGenerator creates a new test data generator
func NewTestDataGenerator(baseDir string) *TestDataGenerator {
	return &TestDataGenerator{
		baseDir: baseDir,
	}
}

// WriteSession writes b to <baseDir>/<projectDir>/<sessionID>.jsonl.
func (g *TestDataGenerator) WriteSession(projectDir string, b *SessionBuilder) (string, error) {
	data, err := b.Bytes()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(g.baseDir, projectDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, b.sessionID+".jsonl")
	return path, os.WriteFile(path, data, 0644)
}

// GenerateSimpleSession writes two answered prompts with latencies of
// 1.5s and 1.2s, separated by the usual synthetic noise.
func (g *TestDataGenerator) GenerateSimpleSession(projectDir, sessionID string, start time.Time) (string, error) {
	b := NewSession(sessionID, start).
		Summary("Simple session").
		Command("/clear").
		After(time.Second).User("Add a health check endpoint").
		After(1500*time.Millisecond).Assistant("Reading the router", 1).
		After(time.Second).ToolResult("package main").
		After(2*time.Second).Assistant("Done", 0).
		After(time.Minute).Reminder("todo list is empty").
		User("Now write a test").
		After(1200*time.Millisecond).Assistant("Added the test", 0)

	return g.WriteSession(projectDir, b)
}
