package chat

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/guilhermegouw/siaka/internal/session"
	"github.com/guilhermegouw/siaka/internal/tui/styles"
)

// sidebarWidth is the fixed sidebar width; below minWidthForSidebar the
// sidebar is hidden.
const (
	sidebarWidth       = 32
	minWidthForSidebar = 80
)

var sidebarFooter = []string{
	"Ds Siaka AI",
	"Créé par Siaka Keita",
	"11ème SES • Lycée La Lanterne",
}

// Sidebar lists the sessions, newest first, and marks the active one.
type Sidebar struct {
	sessions []session.Session
	activeID string
	width    int
	height   int
	now      func() time.Time
}

// NewSidebar creates an empty sidebar.
func NewSidebar() *Sidebar {
	return &Sidebar{now: time.Now}
}

// SetSessions replaces the listed sessions.
func (s *Sidebar) SetSessions(sessions []session.Session, activeID string) {
	s.sessions = sessions
	s.activeID = activeID
}

// SetSize sets the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Neighbour returns the id of the session delta rows away from the active
// one, wrapping around. It returns "" when there is nothing to switch to.
func (s *Sidebar) Neighbour(delta int) string {
	n := len(s.sessions)
	if n < 2 {
		return ""
	}
	cur := 0
	for i := range s.sessions {
		if s.sessions[i].ID == s.activeID {
			cur = i
			break
		}
	}
	return s.sessions[((cur+delta)%n+n)%n].ID
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	t := styles.CurrentTheme()

	header := t.S().Title.Render("Mes devoirs")
	hint := t.S().Subtle.Render("ctrl+n nouveau • alt+[ ] changer")

	footer := make([]string, 0, len(sidebarFooter))
	for i, line := range sidebarFooter {
		style := t.S().Subtle
		if i == 0 {
			style = t.S().Muted.Bold(true)
		}
		footer = append(footer, style.Render(line))
	}

	rows := max(0, (s.height-lipgloss.Height(header)-len(footer)-4)/2)
	start := 0
	for i := range s.sessions {
		if s.sessions[i].ID == s.activeID && i >= rows {
			start = i - rows + 1
		}
	}
	end := min(len(s.sessions), start+rows)

	items := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, s.renderSession(s.sessions[i]))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{header, hint, ""}, items...)...)
	bodyHeight := max(0, s.height-len(footer)-1)

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		BorderRight(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.CurrentTheme().Border).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Height(bodyHeight).Render(body),
			"",
			strings.Join(footer, "\n"),
		))
}

func (s *Sidebar) renderSession(sess session.Session) string {
	t := styles.CurrentTheme()
	inner := max(8, s.width-5)

	title := ansi.Truncate(sess.Title, inner-2, "…")
	meta := ansi.Truncate(fmt.Sprintf("%s %s · %s", sess.Subject.Info().Icon, sess.Subject.Name(), relativeTime(sess.CreatedAt, s.now())), inner-2, "…")

	if sess.ID == s.activeID {
		return t.S().Primary.Bold(true).Render("▌ "+title) + "\n" + t.S().Muted.Render("  "+meta)
	}
	return t.S().Text.Render("  "+title) + "\n" + t.S().Subtle.Render("  "+meta)
}

// relativeTime formats t relative to now, in French.
func relativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "à l'instant"
	case diff < time.Hour:
		return fmt.Sprintf("il y a %d min", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("il y a %d h", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "hier"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("il y a %d jours", int(diff.Hours()/24))
	default:
		return t.Local().Format("02/01/2006")
	}
}
