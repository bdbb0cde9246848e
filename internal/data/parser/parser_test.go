package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-claude-latency/internal/core/model"
)

func TestParserParseFileValidJSONL(t *testing.T) {
	p := NewParser(nil)
	tempDir := t.TempDir()

	validJSONL := `{"type":"user","uuid":"u1","sessionId":"session-1","timestamp":"2023-10-15T10:00:00Z","message":{"role":"user","content":"Hello"}}
{"type":"assistant","uuid":"u2","sessionId":"session-1","timestamp":"2023-10-15T10:00:02Z","message":{"role":"assistant","content":"Hi there","model":"claude-3-sonnet","usage":{"input_tokens":10,"output_tokens":5}}}`

	testFile := filepath.Join(tempDir, "session-1.jsonl")
	require.NoError(t, os.WriteFile(testFile, []byte(validJSONL), 0644))

	result, err := p.ParseFile(testFile)
	require.NoError(t, err)

	assert.Equal(t, testFile, result.Path)
	require.Len(t, result.Events, 2)
	assert.Equal(t, model.KindUserMessage, result.Events[0].Kind)
	assert.Equal(t, 1, result.Events[0].Line)
	assert.Equal(t, model.KindAssistantMessage, result.Events[1].Kind)
	assert.Equal(t, 2, result.Events[1].Line)
	assert.Equal(t, DecodeStats{Lines: 2, Decoded: 2}, result.Stats)
}

func TestParserSkipsBadLinesWithoutAborting(t *testing.T) {
	p := NewParser(nil)

	mixed := strings.Join([]string{
		`{"type":"user","timestamp":"2023-10-15T10:00:00Z","message":{"role":"user","content":"Hello"}}`,
		`invalid json line here`,
		``,
		`{"type":"summary","summary":"Earlier work","leafUuid":"x"}`,
		`{"type":"assistant","message":{"role":"assistant","content":"no timestamp"}}`,
		`{"type":"assistant","timestamp":"2023-10-15T10:00:01Z","message":{"role":"assistant","content":"Hi"}}`,
	}, "\n")

	result, err := p.ParseReader(strings.NewReader(mixed), "mixed.jsonl")
	require.NoError(t, err)

	assert.Len(t, result.Events, 2)
	assert.Equal(t, 6, result.Events[1].Line)

	stats := result.Stats
	assert.Equal(t, 6, stats.Lines)
	assert.Equal(t, 2, stats.Decoded)
	assert.Equal(t, 1, stats.Blank)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 1, stats.Incomplete)
	assert.Equal(t, 1, stats.Unrecognized)
	assert.Equal(t, 2, stats.Skipped())

	require.Len(t, stats.Failures, 2)
	assert.Equal(t, 2, stats.Failures[0].Line)
	assert.Equal(t, 5, stats.Failures[1].Line)
}

func TestParserFailureListIsBounded(t *testing.T) {
	p := NewParser(nil)
	lines := make([]string, 50)
	for i := range lines {
		lines[i] = "garbage"
	}

	result, err := p.ParseReader(strings.NewReader(strings.Join(lines, "\n")), "bad.jsonl")
	require.NoError(t, err)

	assert.Equal(t, 50, result.Stats.Malformed)
	assert.Len(t, result.Stats.Failures, maxRecordedFailures)
}

func TestParserParseFileMissing(t *testing.T) {
	p := NewParser(nil)
	_, err := p.ParseFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParserHandlesLongLines(t *testing.T) {
	p := NewParser(nil)
	long := strings.Repeat("a", 256*1024)
	line := `{"type":"user","timestamp":"2023-10-15T10:00:00Z","message":{"role":"user","content":"` + long + `"}}`

	result, err := p.ParseReader(strings.NewReader(line), "long.jsonl")
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Len(t, result.Events[0].Payload.Texts[0], len(long))
}

func TestParserSkipsOversizedLine(t *testing.T) {
	p := NewParser(nil)
	p.maxLine = 1024

	good := func(ts string) string {
		return `{"type":"user","timestamp":"` + ts + `","message":{"role":"user","content":"hi"}}`
	}
	oversized := `{"type":"user","timestamp":"2023-10-15T10:00:01Z","message":{"role":"user","content":"` +
		strings.Repeat("x", 64*1024) + `"}}`
	input := good("2023-10-15T10:00:00Z") + "\n" + oversized + "\n" + good("2023-10-15T10:00:02Z") + "\n"

	result, err := p.ParseReader(strings.NewReader(input), "oversized.jsonl")
	require.NoError(t, err)

	require.Len(t, result.Events, 2)
	assert.Equal(t, 1, result.Events[0].Line)
	assert.Equal(t, 3, result.Events[1].Line)
	assert.Equal(t, 3, result.Stats.Lines)
	assert.Equal(t, 1, result.Stats.Malformed)
	require.Len(t, result.Stats.Failures, 1)
	assert.Equal(t, 2, result.Stats.Failures[0].Line)
}

func TestParserOversizedLastLineWithoutNewline(t *testing.T) {
	p := NewParser(nil)
	p.maxLine = 16

	input := `{"type":"summary"}` + "\n" + strings.Repeat("y", 100)
	result, err := p.ParseReader(strings.NewReader(input), "tail.jsonl")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Lines)
	assert.Equal(t, 2, result.Stats.Malformed)
}

func TestParserDefaultLimitAcceptsLargeLine(t *testing.T) {
	p := NewParser(nil)
	big := strings.Repeat("z", 11*1024*1024)
	input := `{"type":"user","timestamp":"2023-10-15T10:00:00Z","message":{"role":"user","content":"ok"}}` + "\n" +
		big + "\n" +
		`{"type":"user","timestamp":"2023-10-15T10:00:05Z","message":{"role":"user","content":"ok"}}` + "\n"

	result, err := p.ParseReader(strings.NewReader(input), "big.jsonl")
	require.NoError(t, err)
	assert.Len(t, result.Events, 2)
	assert.Equal(t, 1, result.Stats.Malformed)
}

func TestDecodeStatsAdd(t *testing.T) {
	total := DecodeStats{Lines: 1, Decoded: 1}
	total.Add(DecodeStats{Lines: 4, Decoded: 2, Malformed: 1, Incomplete: 1})

	assert.Equal(t, 5, total.Lines)
	assert.Equal(t, 3, total.Decoded)
	assert.Equal(t, 2, total.Skipped())
}
