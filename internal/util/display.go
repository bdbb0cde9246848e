package util

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Terminal control sequences used by watch mode.
const (
	ClearScreen    = "\033[2J"
	MoveCursorHome = "\033[H"
)

const defaultTerminalWidth = 120

// GetDisplayWidth calculates the actual display width of a string, accounting for wide runes and emojis
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// TruncateDisplay shortens text to at most width display cells, marking the cut with an ellipsis.
func TruncateDisplay(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "…")
}

// PadRight pads text with spaces to width display cells.
func PadRight(text string, width int) string {
	return runewidth.FillRight(text, width)
}

// PadLeft right-aligns text within width display cells.
func PadLeft(text string, width int) string {
	return runewidth.FillLeft(text, width)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the column count of stdout, or a sane default when
// stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTerminalWidth
	}
	return width
}

// Rule returns a horizontal line of width characters.
func Rule(char string, width int) string {
	return strings.Repeat(char, width)
}
