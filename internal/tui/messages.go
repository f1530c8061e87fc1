package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type toastType int

const (
	toastSuccess toastType = iota
	toastError
	toastWarning
	toastInfo
)

const toastDuration = 3 * time.Second

type toast struct {
	message   string
	kind      toastType
	expiresAt time.Time
}

func newToast(message string, kind toastType) *toast {
	return &toast{message: message, kind: kind, expiresAt: time.Now().Add(toastDuration)}
}

func (t *toast) expired() bool {
	return time.Now().After(t.expiresAt)
}

type SuccessMsg struct {
	Message string
}

type ErrorMsg struct {
	Err     error
	Context string
}

func (e ErrorMsg) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %v", e.Context, e.Err)
	}
	return e.Err.Error()
}

type WarningMsg struct {
	Message string
}

type InfoMsg struct {
	Message string
}

type toastExpiredMsg struct{}

// stateChangedMsg is delivered whenever the controller publishes.
type stateChangedMsg struct{}

// consoleChangedMsg is delivered after every console record.
type consoleChangedMsg struct{}

// navDoneMsg reports the end of a navigation started from the UI. moved is
// false for back/forward with nothing to replay.
type navDoneMsg struct {
	action string
	moved  bool
	err    error
}

type commandDoneMsg struct {
	query string
}

func NewSuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return SuccessMsg{Message: message}
	}
}

func NewErrorCmd(err error, context string) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err, Context: context}
	}
}

func NewWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return WarningMsg{Message: message}
	}
}

func NewInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return InfoMsg{Message: message}
	}
}

func toastExpireCmd() tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}

func (t *toast) render(styles toastStyles) string {
	var style lipgloss.Style
	var icon string

	switch t.kind {
	case toastSuccess:
		style = styles.success
		icon = "✓ "
	case toastError:
		style = styles.error
		icon = "✗ "
	case toastWarning:
		style = styles.warning
		icon = "! "
	case toastInfo:
		style = styles.info
		icon = "i "
	}

	return style.Render(icon + t.message)
}

type toastStyles struct {
	success lipgloss.Style
	error   lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
}
