// Package render turns answer text into its display form. Terminals that
// can show colour get markdown with syntax highlighting; anything else gets
// wrapped plain text.
package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Renderer formats text for a given width.
type Renderer interface {
	Render(text string, width int) string
}

// Plain wraps text without emitting escape codes.
type Plain struct{}

// Render wraps text at width. A width below 1 leaves lines untouched.
func (Plain) Render(text string, width int) string {
	text = strings.TrimRight(text, "\n")
	if width < 1 {
		return text
	}
	return ansi.Wrap(text, width, "")
}

// Select picks a renderer for out: Glamour when out is a terminal with a
// colour profile, Plain otherwise.
func Select(out *os.File) Renderer {
	if out == nil || !term.IsTerminal(int(out.Fd())) {
		return Plain{}
	}
	profile := termenv.NewOutput(out).EnvColorProfile()
	if profile == termenv.Ascii {
		return Plain{}
	}
	return NewGlamour(WithProfile(profile))
}
