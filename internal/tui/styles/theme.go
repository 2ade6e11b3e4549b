// Package styles holds the colour theme of the terminal interface.
package styles

import (
	"fmt"
	"image/color"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme is a named set of colours.
type Theme struct { //nolint:govet // fieldalignment: grouped by role
	Name   string
	IsDark bool

	Primary   color.Color
	Secondary color.Color
	Tertiary  color.Color
	Accent    color.Color

	BgBase    color.Color
	BgSubtle  color.Color
	BgOverlay color.Color

	FgBase   color.Color
	FgMuted  color.Color
	FgSubtle color.Color

	Border      color.Color
	BorderFocus color.Color

	Success color.Color
	Error   color.Color
	Warning color.Color
	Info    color.Color

	once   sync.Once
	styles *Styles
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Title   lipgloss.Style
	Text    lipgloss.Style
	Muted   lipgloss.Style
	Subtle  lipgloss.Style
	Primary lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
}

// S returns the theme's styles, built on first use.
func (t *Theme) S() *Styles {
	t.once.Do(func() {
		base := lipgloss.NewStyle()
		t.styles = &Styles{
			Title:   base.Foreground(t.Accent).Bold(true),
			Text:    base.Foreground(t.FgBase),
			Muted:   base.Foreground(t.FgMuted),
			Subtle:  base.Foreground(t.FgSubtle),
			Primary: base.Foreground(t.Primary),
			Accent:  base.Foreground(t.Accent),
			Success: base.Foreground(t.Success),
			Error:   base.Foreground(t.Error),
			Warning: base.Foreground(t.Warning),
			Info:    base.Foreground(t.Info),
		}
	})
	return t.styles
}

// Hex returns c as "#rrggbb".
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// ParseHex parses "#rrggbb". Invalid input yields mid gray so a typo in a
// theme never breaks rendering.
func ParseHex(s string) color.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	}
	return c
}

var (
	mu      sync.RWMutex
	current *Theme
)

// NewManager installs the default theme.
func NewManager() {
	SetTheme(NewDefaultTheme())
}

// SetTheme replaces the current theme.
func SetTheme(t *Theme) {
	mu.Lock()
	defer mu.Unlock()
	current = t
}

// CurrentTheme returns the active theme, installing the default if needed.
func CurrentTheme() *Theme {
	mu.RLock()
	t := current
	mu.RUnlock()
	if t != nil {
		return t
	}

	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = NewDefaultTheme()
	}
	return current
}
