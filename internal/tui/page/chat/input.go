package chat

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/textinput"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/siaka/internal/tui/styles"
)

const (
	inputPlaceholder = "Pose une question ou colle un exercice..."
	busyPlaceholder  = "Ds Siaka répond, patiente un instant..."
)

// Input is the question box.
type Input struct {
	textInput textinput.Model
	width     int
	enabled   bool
}

// NewInput creates a focused input.
func NewInput() *Input {
	ti := textinput.New()
	ti.Placeholder = inputPlaceholder
	ti.CharLimit = 8000
	ti.Focus()

	return &Input{
		textInput: ti,
		enabled:   true,
	}
}

// Init starts the cursor blink.
func (i *Input) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards msg to the text input unless the input is disabled.
func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	if !i.enabled {
		return i, nil
	}

	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

// View renders the input box.
func (i *Input) View() string {
	t := styles.CurrentTheme()

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Padding(0, 1).
		Width(max(10, i.width-2))

	if !i.enabled {
		style = style.BorderForeground(t.Border)
	}

	return style.Render(i.textInput.View())
}

// Height is the rendered height, borders included.
func (i *Input) Height() int {
	return 3
}

// SetWidth sets the input width.
func (i *Input) SetWidth(width int) {
	i.width = width
	i.textInput.SetWidth(max(1, width-6))
}

// Value returns the typed text.
func (i *Input) Value() string {
	return i.textInput.Value()
}

// SetValue replaces the typed text.
func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

// Clear empties the input.
func (i *Input) Clear() {
	i.textInput.SetValue("")
}

// Enable re-enables typing after an answer.
func (i *Input) Enable() tea.Cmd {
	i.enabled = true
	i.textInput.Placeholder = inputPlaceholder
	return i.textInput.Focus()
}

// Disable blocks typing while an answer streams.
func (i *Input) Disable() {
	i.enabled = false
	i.textInput.Placeholder = busyPlaceholder
	i.textInput.Blur()
}

// Focus focuses the text input.
func (i *Input) Focus() tea.Cmd {
	return i.textInput.Focus()
}

// IsEnabled reports whether typing is allowed.
func (i *Input) IsEnabled() bool {
	return i.enabled
}

// Cursor returns the text cursor, or nil while disabled.
func (i *Input) Cursor() *tea.Cursor {
	if !i.enabled {
		return nil
	}
	return i.textInput.Cursor()
}
