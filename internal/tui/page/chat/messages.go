package chat

import (
	"encoding/base64"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/render"
	"github.com/guilhermegouw/siaka/internal/subject"
	"github.com/guilhermegouw/siaka/internal/tui/styles"
)

// Speaker names shown above each message.
const (
	userName  = "Moi"
	modelName = "Ds Siaka"
)

const (
	welcomeTitle = "Bonjour ! Je suis Ds Siaka"
	welcomeText  = "Choisis une matière (tab) et pose-moi n'importe quelle question. Je suis là pour t'aider dans tes devoirs !"
	thinkingText = "Ds Siaka réfléchit..."
)

// Transcript displays the messages of the active session.
type Transcript struct {
	renderer render.Renderer
	messages []message.Message
	subject  subject.Subject
	busy     bool
	spinner  int
	width    int
	height   int
	offset   int // lines scrolled up from the bottom
}

// NewTranscript creates a transcript that renders answers with r.
func NewTranscript(r render.Renderer) *Transcript {
	if r == nil {
		r = render.Plain{}
	}
	return &Transcript{renderer: r}
}

// SetMessages replaces the displayed messages.
func (tr *Transcript) SetMessages(msgs []message.Message, subj subject.Subject) {
	if len(msgs) != len(tr.messages) {
		tr.offset = 0
	}
	tr.messages = msgs
	tr.subject = subj
}

// SetBusy marks whether an answer is streaming.
func (tr *Transcript) SetBusy(busy bool, spinner int) {
	tr.busy = busy
	tr.spinner = spinner
}

// SetSize sets the component size.
func (tr *Transcript) SetSize(width, height int) {
	tr.width = width
	tr.height = height
}

// ScrollUp scrolls towards older messages.
func (tr *Transcript) ScrollUp(n int) {
	tr.offset += n
}

// ScrollDown scrolls towards the newest message.
func (tr *Transcript) ScrollDown(n int) {
	tr.offset = max(0, tr.offset-n)
}

// ScrollToBottom jumps to the newest message.
func (tr *Transcript) ScrollToBottom() {
	tr.offset = 0
}

// View renders the visible part of the transcript.
func (tr *Transcript) View() string {
	t := styles.CurrentTheme()

	if len(tr.messages) == 0 {
		welcome := lipgloss.JoinVertical(lipgloss.Center,
			t.S().Title.Render(welcomeTitle),
			"",
			t.S().Muted.Width(min(60, max(20, tr.width-4))).Align(lipgloss.Center).Render(welcomeText),
			"",
			t.S().Subtle.Render(tr.subject.Info().Icon+" "+tr.subject.Description()),
		)
		return lipgloss.Place(tr.width, tr.height, lipgloss.Center, lipgloss.Center, welcome)
	}

	rendered := make([]string, 0, len(tr.messages))
	for i := range tr.messages {
		rendered = append(rendered, tr.renderMessage(tr.messages[i]))
	}
	lines := strings.Split(strings.Join(rendered, "\n\n"), "\n")

	// clamp the scroll so the first line can reach the top but not further
	maxOffset := max(0, len(lines)-tr.height)
	tr.offset = min(tr.offset, maxOffset)
	end := len(lines) - tr.offset
	start := max(0, end-tr.height)

	return lipgloss.NewStyle().
		Width(tr.width).
		Height(tr.height).
		Padding(0, 1).
		Render(strings.Join(lines[start:end], "\n"))
}

func (tr *Transcript) contentWidth() int {
	return max(10, tr.width-4)
}

func (tr *Transcript) renderMessage(msg message.Message) string {
	if msg.Role == message.RoleUser {
		return tr.renderUserMessage(msg)
	}
	return tr.renderModelMessage(msg)
}

func (tr *Transcript) renderUserMessage(msg message.Message) string {
	t := styles.CurrentTheme()

	header := t.S().Primary.Bold(true).Render(userName) + "  " + t.S().Subtle.Render(clock(msg))
	parts := []string{header}
	parts = append(parts, imageLines(msg.Images)...)
	if msg.Text != "" {
		parts = append(parts, t.S().Text.Render(render.Plain{}.Render(msg.Text, tr.contentWidth())))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (tr *Transcript) renderModelMessage(msg message.Message) string {
	t := styles.CurrentTheme()

	header := t.S().Accent.Bold(true).Render(modelName) + "  " + t.S().Subtle.Render(clock(msg))
	if marker := feedbackMarker(msg); marker != "" {
		header += "  " + marker
	}

	var body string
	switch {
	case msg.IsError:
		body = t.S().Error.Render(render.Plain{}.Render(msg.Text, tr.contentWidth()))
	case msg.IsPlaceholder():
		body = t.S().Info.Render(spinnerFrames[tr.spinner%len(spinnerFrames)] + " " + thinkingText)
	default:
		body = tr.renderer.Render(msg.Text, tr.contentWidth())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func imageLines(images []message.Image) []string {
	t := styles.CurrentTheme()
	lines := make([]string, 0, len(images))
	for i, img := range images {
		lines = append(lines, t.S().Muted.Render(fmt.Sprintf("[image %d : %s, %s]", i+1, img.MIMEType, humanSize(base64.StdEncoding.DecodedLen(len(img.Data))))))
	}
	return lines
}

func feedbackMarker(msg message.Message) string {
	t := styles.CurrentTheme()
	switch msg.Feedback {
	case message.FeedbackLike:
		return t.S().Success.Render("👍 Utile")
	case message.FeedbackDislike:
		return t.S().Error.Render("👎 Pas utile")
	default:
		return ""
	}
}

func clock(msg message.Message) string {
	if msg.Timestamp.IsZero() {
		return ""
	}
	return msg.Timestamp.Local().Format("15:04")
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f Mo", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%d Ko", n>>10)
	default:
		return fmt.Sprintf("%d o", n)
	}
}
