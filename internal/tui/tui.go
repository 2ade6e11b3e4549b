// Package tui provides the terminal user interface of Ds Siaka.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"golang.org/x/term"

	"github.com/guilhermegouw/siaka/internal/app"
	"github.com/guilhermegouw/siaka/internal/bridge"
	"github.com/guilhermegouw/siaka/internal/config"
	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/render"
	"github.com/guilhermegouw/siaka/internal/tui/page/chat"
	"github.com/guilhermegouw/siaka/internal/tui/styles"
	"github.com/guilhermegouw/siaka/internal/tui/util"
)

// ErrNotATerminal is returned by Run when stdin or stdout is redirected.
var ErrNotATerminal = errors.New("siaka needs an interactive terminal: stdin/stdout must be connected to a TTY")

// ConfigReloadedMsg carries a configuration reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// Model is the root TUI model.
type Model struct {
	app      *app.App
	chatPage *chat.Model
	width    int
	height   int
	ready    bool
}

// New creates the root model for a.
func New(a *app.App, renderer render.Renderer) *Model {
	return &Model{
		app: a,
		chatPage: chat.New(chat.Options{
			Orchestrator: a.Orchestrator,
			Renderer:     renderer,
			Exporter:     a.Exporter(),
			ModelID:      a.ModelID,
		}),
	}
}

// Init initializes the chat page.
func (m *Model) Init() tea.Cmd {
	return m.chatPage.Init()
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		debug.Event("tui", "WindowSize", fmt.Sprintf("width=%d height=%d", msg.Width, msg.Height))
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.chatPage.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case ConfigReloadedMsg:
		return m, m.handleConfigReload(msg)
	}

	_, cmd := m.chatPage.Update(msg)
	return m, cmd
}

func (m *Model) handleConfigReload(msg ConfigReloadedMsg) tea.Cmd {
	if msg.Err != nil {
		debug.Error("tui", msg.Err, "reloading config")
		return util.ReportError(fmt.Errorf("configuration invalide : %w", msg.Err))
	}
	m.app.Reconfigure(msg.Config)
	m.chatPage.SetModelID(m.app.ModelID)

	if !msg.Config.HasAPIKey() {
		return util.ReportWarn("Configuration rechargée, mais aucune clé API")
	}
	return util.ReportSuccess("Configuration rechargée")
}

// View renders the TUI.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion

	if !m.ready {
		t := styles.CurrentTheme()
		view.Content = t.S().Muted.Render("Chargement...")
		return view
	}

	view.Content = lipgloss.NewStyle().MaxWidth(m.width).MaxHeight(m.height).Render(m.chatPage.View())
	view.Cursor = m.chatPage.Cursor()
	return view
}

// Run starts the TUI and blocks until the student quits.
func Run(ctx context.Context, a *app.App) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return ErrNotATerminal
	}

	styles.NewManager()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := New(a, render.Select(os.Stdout))
	model.chatPage.SetContext(ctx)
	// In Bubble Tea v2, AltScreen and MouseMode are set in View()
	p := tea.NewProgram(model, tea.WithContext(ctx))

	tuiBridge := bridge.NewTUIBridge(a.Hub, p)
	tuiBridge.Start(ctx)
	defer tuiBridge.Stop()

	if path := a.Config().Path(); path != "" {
		err := config.Watch(ctx, path, config.DefaultWatchDebounce, func(cfg *config.Config, err error) {
			p.Send(ConfigReloadedMsg{Config: cfg, Err: err})
		})
		if err != nil {
			debug.Error("tui", err, "watching config")
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
