package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/util"
)

const (
	initialBufferSize = 64 * 1024
	maxLineSize       = 10 * 1024 * 1024
	// maxRecordedFailures bounds DecodeStats.Failures; counters keep counting.
	maxRecordedFailures = 20
)

// LineError records why a given line was rejected.
type LineError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

// DecodeStats summarizes one decoding pass over a file.
type DecodeStats struct {
	Lines        int         `json:"lines"`
	Decoded      int         `json:"decoded"`
	Blank        int         `json:"blank"`
	Malformed    int         `json:"malformed"`
	Incomplete   int         `json:"incomplete"`
	Unrecognized int         `json:"unrecognized"`
	Failures     []LineError `json:"failures,omitempty"`
}

// Skipped is the number of lines dropped as unparsable: malformed
// records plus records without a usable type or timestamp.
func (s DecodeStats) Skipped() int {
	return s.Malformed + s.Incomplete
}

// Add folds other into s.
func (s *DecodeStats) Add(other DecodeStats) {
	s.Lines += other.Lines
	s.Decoded += other.Decoded
	s.Blank += other.Blank
	s.Malformed += other.Malformed
	s.Incomplete += other.Incomplete
	s.Unrecognized += other.Unrecognized
}

func (s *DecodeStats) record(line int, err error) {
	switch {
	case errors.Is(err, ErrBlankLine):
		s.Blank++
		return
	case errors.Is(err, ErrUnknownKind):
		s.Unrecognized++
		return
	case errors.Is(err, ErrMalformedLine):
		s.Malformed++
	default:
		s.Incomplete++
	}
	if len(s.Failures) < maxRecordedFailures {
		s.Failures = append(s.Failures, LineError{Line: line, Err: err.Error()})
	}
}

// FileEvents is the decoded content of one log file.
type FileEvents struct {
	Path   string
	Events []model.LogEvent
	Stats  DecodeStats
}

// Parser reads session log files line by line.
type Parser struct {
	logger util.LoggerInterface
	// maxLine bounds a single line; longer lines are skipped as malformed.
	maxLine int
}

// NewParser creates a new Parser instance.
func NewParser(logger util.LoggerInterface) *Parser {
	if logger == nil {
		logger = util.NewNopLogger()
	}
	return &Parser{logger: logger, maxLine: maxLineSize}
}

// ParseFile decodes every line of the file at path. Only I/O failures are
// returned as errors; rejected lines are counted in the stats.
func (p *Parser) ParseFile(path string) (*FileEvents, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	return p.ParseReader(file, path)
}

// ParseReader decodes every line of r. source names r in logs.
func (p *Parser) ParseReader(r io.Reader, source string) (*FileEvents, error) {
	start := time.Now()
	result := &FileEvents{Path: source}

	reader := bufio.NewReaderSize(r, initialBufferSize)

	lineNo := 0
	for {
		line, oversized, err := readLine(reader, p.maxLine)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		lineNo++

		if oversized {
			err := fmt.Errorf("%w: line exceeds %d bytes", ErrMalformedLine, p.maxLine)
			result.Stats.record(lineNo, err)
			p.logger.Debugf("Skip invalid line %s:%d - %v", source, lineNo, err)
			continue
		}

		event, err := Decode(line)
		if err != nil {
			result.Stats.record(lineNo, err)
			if errors.Is(err, ErrMalformedLine) || errors.Is(err, ErrMissingKind) || errors.Is(err, ErrMissingTimestamp) {
				p.logger.Debugf("Skip invalid line %s:%d - %v", source, lineNo, err)
			}
			continue
		}
		event.Line = lineNo
		result.Events = append(result.Events, event)
		result.Stats.Decoded++
	}
	result.Stats.Lines = lineNo

	p.logger.Debugf("Parsed %s: %d lines, %d events, %d skipped, %d ignored in %v",
		source, result.Stats.Lines, result.Stats.Decoded, result.Stats.Skipped(),
		result.Stats.Unrecognized, time.Since(start))

	return result, nil
}

// readLine returns the next line without its terminator. A line longer than
// limit is consumed to its end and reported as oversized with no content.
// io.EOF is returned only when no bytes remain.
func readLine(r *bufio.Reader, limit int) ([]byte, bool, error) {
	var (
		line      []byte
		oversized bool
		consumed  int
	)
	for {
		chunk, err := r.ReadSlice('\n')
		consumed += len(chunk)
		if !oversized {
			if len(line)+len(chunk) > limit+1 {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil:
			return bytes.TrimRight(line, "\r\n"), oversized, nil
		case errors.Is(err, io.EOF):
			if consumed == 0 {
				return nil, false, io.EOF
			}
			return bytes.TrimRight(line, "\r\n"), oversized, nil
		default:
			return nil, oversized, err
		}
	}
}
