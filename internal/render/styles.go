// Package render formats scaffold results for the terminal and for scripts.
package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	ColorAccent  = lipgloss.Color("#2CD7C7")
	ColorSuccess = lipgloss.Color("#2ECC71")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#7F8C8D")
)

// Styles holds the styles bound to one output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Command lipgloss.Style

	StatusOK      lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusSkipped lipgloss.Style
}

// NewStyles returns styles rendered for w. Writers that are not color
// terminals get plain text.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(ColorAccent),
		Label:   r.NewStyle().Bold(true),
		Value:   r.NewStyle().Foreground(ColorAccent),
		Muted:   r.NewStyle().Foreground(ColorMuted),
		Command: r.NewStyle().Foreground(ColorAccent),

		StatusOK:      r.NewStyle().SetString("✓").Foreground(ColorSuccess),
		StatusFailed:  r.NewStyle().SetString("✗").Foreground(ColorError),
		StatusSkipped: r.NewStyle().SetString("○").Foreground(ColorWarning),
	}
}
