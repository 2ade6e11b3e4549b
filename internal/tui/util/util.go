// Package util holds small helpers shared by the TUI pages.
package util

import (
	"time"

	tea "charm.land/bubbletea/v2"
)

// Model is a page or component driven by the root TUI model.
type Model interface {
	Init() tea.Cmd
	Update(tea.Msg) (Model, tea.Cmd)
	View() string
}

// InfoType is the severity of a toast.
type InfoType int

// Toast severities.
const (
	InfoTypeInfo InfoType = iota
	InfoTypeSuccess
	InfoTypeWarn
	InfoTypeError
)

// DefaultTTL is how long a toast stays visible.
const DefaultTTL = 4 * time.Second

// InfoMsg asks the page to show a short-lived toast.
type InfoMsg struct {
	Type InfoType
	Msg  string
	TTL  time.Duration
}

// ClearInfoMsg hides the toast it was scheduled for.
type ClearInfoMsg struct {
	ID int
}

// ReportInfo returns a command that shows an information toast.
func ReportInfo(msg string) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeInfo, Msg: msg})
}

// ReportSuccess returns a command that shows a success toast.
func ReportSuccess(msg string) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeSuccess, Msg: msg})
}

// ReportWarn returns a command that shows a warning toast.
func ReportWarn(msg string) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeWarn, Msg: msg})
}

// ReportError returns a command that shows err as an error toast.
func ReportError(err error) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeError, Msg: err.Error()})
}

// CmdHandler wraps a message in a command.
func CmdHandler(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}
