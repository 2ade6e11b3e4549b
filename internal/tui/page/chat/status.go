package chat

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/guilhermegouw/siaka/internal/subject"
	"github.com/guilhermegouw/siaka/internal/tui/styles"
	"github.com/guilhermegouw/siaka/internal/tui/util"
)

// Spinner animation frames (braille pattern).
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// SpinnerTickMsg advances the spinner animation.
type SpinnerTickMsg struct{}

func tickSpinner() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return SpinnerTickMsg{}
	})
}

const helpText = "entrée envoyer • tab matière • ctrl+l/ctrl+k noter • ctrl+e exporter • ctrl+c quitter"

// StatusBar shows the subject, the model it routes to and the latest toast.
type StatusBar struct { //nolint:govet // fieldalignment: preserving logical field order
	subject  subject.Subject
	modelID  string
	images   int
	busy     bool
	spinner  int
	toast    util.InfoMsg
	toastID  int
	hasToast bool
	width    int
}

// NewStatusBar creates a status bar for the default subject.
func NewStatusBar() *StatusBar {
	return &StatusBar{subject: subject.Default}
}

// SetSubject sets the subject and the model id it routes to.
func (s *StatusBar) SetSubject(subj subject.Subject, modelID string) {
	s.subject = subj
	s.modelID = modelID
}

// SetPendingImages sets how many images wait for the next question.
func (s *StatusBar) SetPendingImages(n int) {
	s.images = n
}

// SetBusy sets the streaming state and the spinner frame.
func (s *StatusBar) SetBusy(busy bool, frame int) {
	s.busy = busy
	s.spinner = frame
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// ShowToast displays msg and returns the command that hides it.
func (s *StatusBar) ShowToast(msg util.InfoMsg) tea.Cmd {
	s.toastID++
	s.toast = msg
	s.hasToast = true

	ttl := msg.TTL
	if ttl <= 0 {
		ttl = util.DefaultTTL
	}
	id := s.toastID
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return util.ClearInfoMsg{ID: id}
	})
}

// ClearToast hides the toast if it is still the one msg refers to.
func (s *StatusBar) ClearToast(msg util.ClearInfoMsg) {
	if msg.ID == s.toastID {
		s.hasToast = false
	}
}

// Toast returns the visible toast text.
func (s *StatusBar) Toast() string {
	if !s.hasToast {
		return ""
	}
	return s.toast.Msg
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := styles.CurrentTheme()

	info := s.subject.Info()
	left := []string{t.S().Primary.Bold(true).Render(info.Icon + " " + info.Name)}
	if s.modelID != "" {
		left = append(left, t.S().Subtle.Render(s.modelID+" ("+s.subject.Tier().String()+")"))
	}
	if s.images > 0 {
		left = append(left, t.S().Warning.Render(imagesLabel(s.images)))
	}
	if s.busy {
		left = append(left, t.S().Info.Render(spinnerFrames[s.spinner%len(spinnerFrames)]+" "+thinkingText))
	}

	right := t.S().Muted.Render(helpText)
	if s.hasToast {
		right = s.toastStyle().Render(s.toast.Msg)
	}

	leftText := strings.Join(left, t.S().Subtle.Render(" • "))
	gap := s.width - lipgloss.Width(leftText) - lipgloss.Width(right) - 2
	if gap < 1 {
		right = ansi.Truncate(right, max(0, s.width-lipgloss.Width(leftText)-3), "…")
		gap = 1
	}

	return lipgloss.NewStyle().
		Width(s.width).
		Padding(0, 1).
		Background(t.BgSubtle).
		Render(leftText + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) toastStyle() lipgloss.Style {
	t := styles.CurrentTheme()
	switch s.toast.Type {
	case util.InfoTypeSuccess:
		return t.S().Success
	case util.InfoTypeWarn:
		return t.S().Warning
	case util.InfoTypeError:
		return t.S().Error
	default:
		return t.S().Info
	}
}

func imagesLabel(n int) string {
	if n == 1 {
		return "1 image jointe"
	}
	return fmt.Sprintf("%d images jointes", n)
}
