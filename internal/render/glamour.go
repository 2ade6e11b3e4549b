package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"

	"github.com/guilhermegouw/siaka/internal/debug"
)

// Palette holds the hex colours the markdown style is built from.
type Palette struct {
	Primary   string
	Secondary string
	Accent    string
	Base      string
	Muted     string
	Subtle    string
}

// DefaultPalette matches the application theme.
var DefaultPalette = Palette{
	Primary:   "#6c8cff",
	Secondary: "#56b6c2",
	Accent:    "#c678dd",
	Base:      "#abb2bf",
	Muted:     "#7f848e",
	Subtle:    "#5c6370",
}

// GlamourOption configures a Glamour renderer.
type GlamourOption func(*Glamour)

// WithProfile sets the colour profile of the output.
func WithProfile(p termenv.Profile) GlamourOption {
	return func(g *Glamour) { g.profile = p }
}

// WithPalette sets the colours of the markdown style.
func WithPalette(p Palette) GlamourOption {
	return func(g *Glamour) { g.palette = p }
}

// Glamour renders markdown. The underlying renderer is rebuilt only when
// the width changes.
type Glamour struct {
	palette Palette
	profile termenv.Profile

	mu          sync.RWMutex
	renderer    *glamour.TermRenderer
	cachedWidth int
}

// NewGlamour creates a markdown renderer.
func NewGlamour(opts ...GlamourOption) *Glamour {
	g := &Glamour{
		palette: DefaultPalette,
		profile: termenv.TrueColor,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Render renders text as markdown, falling back to Plain on failure.
func (g *Glamour) Render(text string, width int) string {
	if text == "" {
		return ""
	}
	r, err := g.getRenderer(width)
	if err != nil {
		debug.Error("render", err, "building markdown renderer")
		return Plain{}.Render(text, width)
	}
	out, err := r.Render(text)
	if err != nil {
		debug.Error("render", err, "rendering markdown")
		return Plain{}.Render(text, width)
	}
	return strings.Trim(out, "\n")
}

func (g *Glamour) getRenderer(width int) (*glamour.TermRenderer, error) {
	g.mu.RLock()
	if g.renderer != nil && g.cachedWidth == width {
		defer g.mu.RUnlock()
		return g.renderer, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.renderer != nil && g.cachedWidth == width {
		return g.renderer, nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(g.style()),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
		glamour.WithColorProfile(g.profile),
	)
	if err != nil {
		return nil, err
	}
	g.renderer = r
	g.cachedWidth = width
	return r, nil
}

func (g *Glamour) style() ansi.StyleConfig {
	p := g.palette
	style := glamourstyles.DarkStyleConfig

	// no margins, the transcript already pads
	var zero uint
	style.Document.Margin = &zero

	style.H1.Color = &p.Accent
	style.H1.Bold = boolPtr(true)
	style.H1.Prefix = ""
	style.H1.Suffix = ""
	style.H1.BackgroundColor = nil
	style.H2.Color = &p.Primary
	style.H2.Bold = boolPtr(true)
	style.H2.Prefix = ""
	style.H3.Color = &p.Secondary
	style.H3.Bold = boolPtr(true)
	style.H3.Prefix = ""
	style.H4.Color = &p.Secondary
	style.H4.Prefix = ""
	style.H5.Color = &p.Muted
	style.H5.Prefix = ""
	style.H6.Color = &p.Muted
	style.H6.Prefix = ""

	style.Code.Color = &p.Secondary

	if style.CodeBlock.Chroma != nil {
		chroma := *style.CodeBlock.Chroma
		style.CodeBlock.Chroma = &chroma
	} else {
		style.CodeBlock.Chroma = &ansi.Chroma{}
	}
	style.CodeBlock.Chroma.Text.Color = &p.Base
	style.CodeBlock.Chroma.Keyword.Color = &p.Primary
	style.CodeBlock.Chroma.Comment.Color = &p.Muted
	style.CodeBlock.Chroma.CommentPreproc.Color = &p.Muted
	style.CodeBlock.Chroma.Name.Color = &p.Base
	style.CodeBlock.Chroma.NameFunction.Color = &p.Accent
	style.CodeBlock.Chroma.NameClass.Color = &p.Accent
	style.CodeBlock.Chroma.Operator.Color = &p.Primary

	style.Link.Color = &p.Primary
	style.Link.Underline = boolPtr(true)
	style.LinkText.Color = &p.Primary

	style.Item.BlockPrefix = "• "
	style.Enumeration.BlockPrefix = ". "

	style.BlockQuote.Color = &p.Muted
	style.BlockQuote.Italic = boolPtr(true)

	style.Emph.Italic = boolPtr(true)
	style.Strong.Bold = boolPtr(true)
	style.HorizontalRule.Color = &p.Subtle
	style.Table.Color = &p.Base

	return style
}

func boolPtr(b bool) *bool { return &b }
