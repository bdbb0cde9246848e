package formatter

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#64b5f6")
	colorSuccess = lipgloss.Color("#66bb6a")
	colorWarning = lipgloss.Color("#fff59d")
	colorError   = lipgloss.Color("#ef5350")
	colorMuted   = lipgloss.Color("#888888")
)

// styles is the palette used by the summary report.
type styles struct {
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	fast    lipgloss.Style
	slow    lipgloss.Style
	warning lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			header:  plain,
			label:   plain.Width(22),
			value:   plain,
			muted:   plain,
			fast:    plain,
			slow:    plain,
			warning: plain,
		}
	}
	return styles{
		header:  lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
		label:   lipgloss.NewStyle().Width(22),
		value:   lipgloss.NewStyle().Bold(true),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		fast:    lipgloss.NewStyle().Foreground(colorSuccess),
		slow:    lipgloss.NewStyle().Foreground(colorError),
		warning: lipgloss.NewStyle().Foreground(colorWarning),
	}
}

// latencyStyle colors a latency by how long the user waited.
func (s styles) latencyStyle(ms float64) lipgloss.Style {
	switch {
	case ms < 5_000:
		return s.fast
	case ms < 30_000:
		return s.warning
	default:
		return s.slow
	}
}
