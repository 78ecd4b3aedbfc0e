// Package ui renders the scanner's terminal output.
package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette, ANSI-256 codes.
var (
	colorCyan    = lipgloss.Color("51")
	colorMagenta = lipgloss.Color("201")
	colorYellow  = lipgloss.Color("226")
	colorGreen   = lipgloss.Color("82")
	colorRed     = lipgloss.Color("196")
	colorBlue    = lipgloss.Color("39")
	colorDim     = lipgloss.Color("241")
)

// borderCycle is the sequence of fill characters used for animated borders.
var borderCycle = []string{"═", "▒", "█", "░", "■"}

// Theme holds the styles used for one output stream. Styles are bound to a
// renderer for that stream, so colour is dropped automatically when the
// stream is not a terminal.
type Theme struct {
	Panel  lipgloss.Style
	Frame  lipgloss.Style
	Title  lipgloss.Style
	Status lipgloss.Style
	Info   lipgloss.Style
	OK     lipgloss.Style
	Warn   lipgloss.Style
	Alert  lipgloss.Style
	Data   lipgloss.Style
	Muted  lipgloss.Style
}

// NewTheme creates a theme for w.
func NewTheme(w io.Writer) *Theme {
	r := lipgloss.NewRenderer(w)
	return &Theme{
		Panel:  r.NewStyle(),
		Frame:  r.NewStyle().Foreground(colorCyan).Bold(true),
		Title:  r.NewStyle().Foreground(colorCyan).Bold(true),
		Status: r.NewStyle().Foreground(colorMagenta),
		Info:   r.NewStyle().Foreground(colorCyan),
		OK:     r.NewStyle().Foreground(colorGreen).Bold(true),
		Warn:   r.NewStyle().Foreground(colorYellow),
		Alert:  r.NewStyle().Foreground(colorRed).Bold(true),
		Data:   r.NewStyle().Foreground(colorBlue),
		Muted:  r.NewStyle().Foreground(colorDim),
	}
}

// Outcome styles a success or failure line.
func (t *Theme) Outcome(ok bool, s string) string {
	if ok {
		return t.OK.Render(s)
	}
	return t.Alert.Render(s)
}

// box returns a bordered style of the given inner width using fill for the
// horizontal edges.
func box(base lipgloss.Style, fill string, width int) lipgloss.Style {
	b := lipgloss.DoubleBorder()
	b.Top = fill
	b.Bottom = fill
	return base.
		Border(b).
		BorderForeground(colorCyan).
		Width(width).
		Padding(0, 1)
}
