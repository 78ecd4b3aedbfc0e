package ui

import (
	"os"

	"golang.org/x/term"
)

// DefaultWidth is the panel width used when the terminal size is unknown.
const DefaultWidth = 80

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Width returns the usable panel width for f, never more than DefaultWidth.
func Width(f *os.File) int {
	if f == nil {
		return DefaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return clampWidth(w)
}

func clampWidth(w int) int {
	switch {
	case w > DefaultWidth:
		return DefaultWidth
	case w < 40:
		return 40
	default:
		return w
	}
}
