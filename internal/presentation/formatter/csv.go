package formatter

import (
	"encoding/csv"
	"io"

	"github.com/penwyp/go-claude-latency/internal/core/model"
)

// CSVFormatter writes the selected view as CSV with latencies in raw milliseconds.
type CSVFormatter struct {
	opts Options
}

func NewCSVFormatter(opts Options) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

func (f *CSVFormatter) Format(w io.Writer, a *model.Analysis) error {
	g := buildGrid(a, f.opts.View, f.opts.Limit, rawCells)

	writer := csv.NewWriter(w)
	headers := make([]string, len(g.headers))
	for i, h := range g.headers {
		headers[i] = h
		if isLatencyHeader(h) {
			headers[i] = h + " (ms)"
		}
	}
	if err := writer.Write(headers); err != nil {
		return err
	}
	if err := writer.WriteAll(g.rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func isLatencyHeader(h string) bool {
	switch h {
	case "Avg", "P50", "P90", "P99", "Min", "Max":
		return true
	}
	return false
}
