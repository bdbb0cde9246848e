package formatter

import (
	"bufio"
	"io"
	"strings"

	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/util"
)

type TableFormatter struct {
	opts Options
}

func NewTableFormatter(opts Options) *TableFormatter {
	return &TableFormatter{opts: opts}
}

func (f *TableFormatter) Format(w io.Writer, a *model.Analysis) error {
	return f.writeGrid(w, buildGrid(a, f.opts.View, f.opts.Limit, humanCells))
}

func (f *TableFormatter) writeGrid(w io.Writer, g grid) error {
	widths := f.calculateColumnWidths(g)

	out := bufio.NewWriter(w)
	f.printBorder(out, widths, "top")
	f.printRow(out, g.headers, widths, g.numeric, true)
	f.printBorder(out, widths, "middle")

	for _, row := range g.rows {
		f.printRow(out, row, widths, g.numeric, false)
	}

	if g.totals != nil {
		f.printBorder(out, widths, "middle")
		f.printRow(out, g.totals, widths, g.numeric, false)
	}
	f.printBorder(out, widths, "bottom")

	return out.Flush()
}

// calculateColumnWidths sizes each column to its widest cell in display cells.
func (f *TableFormatter) calculateColumnWidths(g grid) []int {
	widths := make([]int, len(g.headers))
	measure := func(values []string) {
		for i, value := range values {
			if w := util.GetDisplayWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}

	measure(g.headers)
	for _, row := range g.rows {
		measure(row)
	}
	if g.totals != nil {
		measure(g.totals)
	}

	// Apply minimum widths for readability
	for i := range widths {
		if widths[i] < 5 {
			widths[i] = 5
		}
	}
	return widths
}

// printBorder prints table borders (top, middle, bottom)
func (f *TableFormatter) printBorder(w io.StringWriter, widths []int, borderType string) {
	var left, middle, right string

	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var sb strings.Builder
	sb.WriteString(left)
	for i, width := range widths {
		sb.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	sb.WriteString("\n")
	w.WriteString(sb.String())
}

// printRow prints one row; numeric columns are right-aligned except in the header.
func (f *TableFormatter) printRow(w io.StringWriter, values []string, widths []int, numeric []bool, header bool) {
	var sb strings.Builder
	sb.WriteString("│")
	for i, value := range values {
		sb.WriteString(" ")
		if numeric[i] && !header {
			sb.WriteString(util.PadLeft(value, widths[i]))
		} else {
			sb.WriteString(util.PadRight(value, widths[i]))
		}
		sb.WriteString(" │")
	}
	sb.WriteString("\n")
	w.WriteString(sb.String())
}
