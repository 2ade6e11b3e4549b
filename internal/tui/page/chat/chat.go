// Package chat provides the homework chat page.
package chat

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/guilhermegouw/siaka/internal/bridge"
	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/events"
	"github.com/guilhermegouw/siaka/internal/export"
	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/orchestrator"
	"github.com/guilhermegouw/siaka/internal/render"
	"github.com/guilhermegouw/siaka/internal/session"
	"github.com/guilhermegouw/siaka/internal/subject"
	"github.com/guilhermegouw/siaka/internal/tui/util"
)

// Toast texts.
const (
	busyToast          = "Patiente, Ds Siaka répond encore..."
	copiedToast        = "Réponse copiée !"
	nothingToCopyToast = "Aucune réponse à copier"
	nothingToRateToast = "Aucune réponse à noter"
	confirmDeleteToast = "Appuie encore sur ctrl+d pour supprimer cette conversation"
	deletedToast       = "Conversation supprimée"
	imagesClearedToast = "Images retirées"
	likedToast         = "Merci ! Réponse notée utile"
	dislikedToast      = "Merci ! Réponse notée pas utile"
	feedbackClearToast = "Note retirée"
)

// Options wires the page to the rest of the application.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Renderer     render.Renderer
	Exporter     *export.Exporter
	// ModelID names the model a subject is routed to; optional.
	ModelID func(subject.Subject) string
	// CopyText puts text on the clipboard; defaults to the system clipboard.
	CopyText func(string) error
}

// Model is the chat page model.
type Model struct { //nolint:govet // fieldalignment: preserving logical field order
	orch     *orchestrator.Orchestrator
	exporter *export.Exporter
	modelID  func(subject.Subject) string
	copyText func(string) error
	ctx      context.Context

	transcript *Transcript
	sidebar    *Sidebar
	input      *Input
	status     *StatusBar

	images        []message.Image
	activeID      string
	pendingDelete string
	busy          bool
	spinning      bool
	spinner       int
	width         int
	height        int
}

// New creates the chat page.
func New(opts Options) *Model {
	copyText := opts.CopyText
	if copyText == nil {
		copyText = clipboard.WriteAll
	}
	modelID := opts.ModelID
	if modelID == nil {
		modelID = func(subject.Subject) string { return "" }
	}
	return &Model{
		orch:       opts.Orchestrator,
		exporter:   opts.Exporter,
		modelID:    modelID,
		copyText:   copyText,
		ctx:        context.Background(),
		transcript: NewTranscript(opts.Renderer),
		sidebar:    NewSidebar(),
		input:      NewInput(),
		status:     NewStatusBar(),
	}
}

// SetContext sets the context turns are streamed under.
func (m *Model) SetContext(ctx context.Context) {
	m.ctx = ctx
}

// SetModelID replaces the model name lookup, after a configuration reload.
func (m *Model) SetModelID(fn func(subject.Subject) string) {
	if fn != nil {
		m.modelID = fn
		m.refresh()
	}
}

// Init loads the current snapshot.
func (m *Model) Init() tea.Cmd {
	if _, ok := m.orch.Store().Active(); !ok {
		m.orch.NewSession()
	}
	m.refresh()
	return tea.Batch(m.input.Init(), m.startSpinner())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (util.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			m.transcript.ScrollUp(3)
		case tea.MouseWheelDown:
			m.transcript.ScrollDown(3)
		}
		return m, nil

	case bridge.SessionEventMsg:
		if msg.Event.Payload.Type == events.SessionEventDeleted {
			m.pendingDelete = ""
		}
		m.refresh()
		return m, nil

	case bridge.TurnEventMsg:
		return m.handleTurnEvent(msg.Event.Payload)

	case SpinnerTickMsg:
		m.spinner++
		m.syncBusy()
		if !m.busy {
			m.spinning = false
			return m, m.input.Focus()
		}
		return m, tickSpinner()

	case util.InfoMsg:
		return m, m.status.ShowToast(msg)

	case util.ClearInfoMsg:
		m.status.ClearToast(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleTurnEvent(ev events.TurnEvent) (util.Model, tea.Cmd) {
	m.refresh()

	switch ev.Type {
	case events.TurnEventStarted:
		m.transcript.ScrollToBottom()
		return m, m.startSpinner()
	case events.TurnEventCompleted:
		return m, m.input.Focus()
	case events.TurnEventFailed:
		debug.Event("chat", "turn_failed", fmt.Sprintf("session=%s kind=%s err=%v", ev.SessionID, ev.ErrorKind, ev.Error))
		return m, m.input.Focus()
	}
	return m, nil
}

//nolint:gocyclo // one case per shortcut
func (m *Model) handleKey(msg tea.KeyPressMsg) (util.Model, tea.Cmd) {
	key := msg.String()
	if key != "ctrl+d" {
		m.pendingDelete = ""
	}

	switch key {
	case "enter":
		return m, m.submit()

	case "tab":
		sess, ok := m.active()
		if !ok {
			return m, nil
		}
		if err := m.orch.SetSubject(sess.ID, sess.Subject.Next()); err != nil {
			return m, util.ReportError(err)
		}
		return m, nil

	case "ctrl+n":
		m.orch.NewSession()
		m.images = nil
		m.refresh()
		return m, nil

	case "ctrl+d":
		return m, m.deleteActive()

	case "alt+up", "ctrl+up", "alt+[":
		return m, m.switchSession(-1)

	case "alt+down", "ctrl+down", "alt+]":
		return m, m.switchSession(1)

	case "ctrl+l":
		return m, m.rate(message.FeedbackLike)

	case "ctrl+k":
		return m, m.rate(message.FeedbackDislike)

	case "ctrl+e":
		return m, m.exportActive()

	case "ctrl+y":
		return m, m.copyLastAnswer()

	case "pgup":
		m.transcript.ScrollUp(max(1, m.transcriptHeight()/2))
		return m, nil

	case "pgdown":
		m.transcript.ScrollDown(max(1, m.transcriptHeight()/2))
		return m, nil

	case "end":
		if !m.input.IsEnabled() {
			m.transcript.ScrollToBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the typed question, or runs an input command.
func (m *Model) submit() tea.Cmd {
	value := m.input.Value()

	if cmd, arg, ok := parseCommand(value); ok {
		m.input.Clear()
		switch cmd {
		case imageCommand:
			img, err := loadImage(arg)
			if err != nil {
				return util.ReportError(err)
			}
			m.images = append(m.images, img)
			m.status.SetPendingImages(len(m.images))
			return util.ReportInfo(imagesLabel(len(m.images)))
		case clearImageCommand:
			m.images = nil
			m.status.SetPendingImages(0)
			return util.ReportInfo(imagesClearedToast)
		}
	}

	if m.busy {
		return util.ReportWarn(busyToast)
	}

	turn, err := m.orch.SendTurnAsync(m.ctx, m.activeID, value, m.images)
	switch {
	case errors.Is(err, orchestrator.ErrEmptyTurn):
		return nil
	case errors.Is(err, orchestrator.ErrBusy):
		return util.ReportWarn(busyToast)
	case err != nil:
		return util.ReportError(err)
	}
	debug.Event("chat", "turn_sent", fmt.Sprintf("session=%s message=%s images=%d", turn.SessionID, turn.MessageID, len(m.images)))

	m.input.Clear()
	m.images = nil
	m.status.SetPendingImages(0)
	m.transcript.ScrollToBottom()
	m.refresh()
	return m.startSpinner()
}

func (m *Model) deleteActive() tea.Cmd {
	if m.activeID == "" {
		return nil
	}
	if m.pendingDelete != m.activeID {
		m.pendingDelete = m.activeID
		return util.ReportWarn(confirmDeleteToast)
	}
	m.pendingDelete = ""
	if _, err := m.orch.DeleteSession(m.activeID); err != nil {
		return util.ReportError(err)
	}
	m.images = nil
	m.status.SetPendingImages(0)
	m.refresh()
	return util.ReportSuccess(deletedToast)
}

func (m *Model) switchSession(delta int) tea.Cmd {
	id := m.sidebar.Neighbour(delta)
	if id == "" {
		return nil
	}
	if err := m.orch.SetActive(id); err != nil {
		return util.ReportError(err)
	}
	m.refresh()
	return nil
}

// rate gives feedback on the latest answer that can be rated.
func (m *Model) rate(fb message.Feedback) tea.Cmd {
	sess, ok := m.active()
	if !ok {
		return nil
	}
	target, ok := lastRateable(sess)
	if !ok {
		return util.ReportInfo(nothingToRateToast)
	}
	if err := m.orch.SetFeedback(sess.ID, target.ID, fb); err != nil {
		return util.ReportError(err)
	}
	m.refresh()

	switch target.Feedback.Toggle(fb) {
	case message.FeedbackLike:
		return util.ReportSuccess(likedToast)
	case message.FeedbackDislike:
		return util.ReportSuccess(dislikedToast)
	default:
		return util.ReportInfo(feedbackClearToast)
	}
}

func (m *Model) exportActive() tea.Cmd {
	sess, ok := m.active()
	if !ok || m.exporter == nil {
		return nil
	}
	exporter := m.exporter
	return func() tea.Msg {
		res, err := exporter.Export(sess)
		if err != nil {
			debug.Error("chat", err, "exporting session")
			return util.InfoMsg{Type: util.InfoTypeError, Msg: err.Error()}
		}
		text := res.Toast()
		if res.Path != "" {
			text += " " + res.Path
		}
		return util.InfoMsg{Type: util.InfoTypeSuccess, Msg: text}
	}
}

func (m *Model) copyLastAnswer() tea.Cmd {
	sess, ok := m.active()
	if !ok {
		return nil
	}
	target, ok := lastRateable(sess)
	if !ok {
		return util.ReportInfo(nothingToCopyToast)
	}
	if err := m.copyText(target.Text); err != nil {
		return util.ReportError(err)
	}
	return util.ReportSuccess(copiedToast)
}

// lastRateable returns the newest finished, successful answer.
func lastRateable(sess session.Session) (message.Message, bool) {
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		msg := sess.Messages[i]
		if msg.Role == message.RoleModel && !msg.IsError && !msg.IsPlaceholder() {
			return msg, true
		}
	}
	return message.Message{}, false
}

func (m *Model) active() (session.Session, bool) {
	return m.orch.Store().Snapshot().Find(m.activeID)
}

// refresh re-reads the latest snapshot.
func (m *Model) refresh() {
	snap := m.orch.Store().Snapshot()
	sess, _ := snap.Active()

	if sess.ID != m.activeID {
		m.transcript.ScrollToBottom()
	}
	m.activeID = sess.ID

	m.sidebar.SetSessions(snap.Sessions, snap.ActiveID)
	m.transcript.SetMessages(sess.Messages, sess.Subject)
	m.status.SetSubject(sess.Subject, m.modelID(sess.Subject))
	m.status.SetPendingImages(len(m.images))
	m.syncBusy()
}

func (m *Model) syncBusy() {
	m.busy = m.orch.Busy()
	m.transcript.SetBusy(m.busy, m.spinner)
	m.status.SetBusy(m.busy, m.spinner)
	switch {
	case m.busy && m.input.IsEnabled():
		m.input.Disable()
	case !m.busy && !m.input.IsEnabled():
		m.input.Enable()
	}
}

func (m *Model) startSpinner() tea.Cmd {
	if !m.busy || m.spinning {
		return nil
	}
	m.spinning = true
	return tickSpinner()
}

// SetSize sets the page size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) showSidebar() bool {
	return m.width >= minWidthForSidebar
}

func (m *Model) mainWidth() int {
	if m.showSidebar() {
		return max(1, m.width-sidebarWidth)
	}
	return m.width
}

func (m *Model) transcriptHeight() int {
	return max(1, m.height-m.input.Height()-1)
}

// View renders the page.
func (m *Model) View() string {
	width := m.mainWidth()
	m.transcript.SetSize(width, m.transcriptHeight())
	m.input.SetWidth(width)
	m.status.SetWidth(width)

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.transcript.View(),
		m.input.View(),
		m.status.View(),
	)
	if !m.showSidebar() {
		return main
	}

	m.sidebar.SetSize(sidebarWidth, m.height)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
}

// Cursor returns the input cursor in page coordinates.
func (m *Model) Cursor() *tea.Cursor {
	c := m.input.Cursor()
	if c == nil {
		return nil
	}
	// border and padding of the input box
	c.X += 2
	c.Y += m.transcriptHeight() + 1
	if m.showSidebar() {
		c.X += sidebarWidth
	}
	return c
}
