package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kennedn/apinav/internal/command"
	"github.com/kennedn/apinav/internal/navigator"
	"github.com/kennedn/apinav/internal/navpath"
)

// waitForState blocks until the controller publishes again.
func waitForState(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return stateChangedMsg{}
	}
}

func waitForConsole(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return consoleChangedMsg{}
	}
}

func startCmd(ctx context.Context, c *navigator.Controller, token string) tea.Cmd {
	return func() tea.Msg {
		err := c.Start(ctx, token)
		return navDoneMsg{action: "start", moved: true, err: err}
	}
}

func openCmd(ctx context.Context, c *navigator.Controller, name string) tea.Cmd {
	return func() tea.Msg {
		return navDoneMsg{action: "open", moved: true, err: c.Open(ctx, name)}
	}
}

func upCmd(ctx context.Context, c *navigator.Controller) tea.Cmd {
	return func() tea.Msg {
		return navDoneMsg{action: "up", moved: true, err: c.Up(ctx)}
	}
}

func backCmd(ctx context.Context, c *navigator.Controller) tea.Cmd {
	return func() tea.Msg {
		moved, err := c.Back(ctx)
		return navDoneMsg{action: "back", moved: moved, err: err}
	}
}

func forwardCmd(ctx context.Context, c *navigator.Controller) tea.Cmd {
	return func() tea.Msg {
		moved, err := c.Forward(ctx)
		return navDoneMsg{action: "forward", moved: moved, err: err}
	}
}

func refreshCmd(ctx context.Context, c *navigator.Controller) tea.Cmd {
	return func() tea.Msg {
		return navDoneMsg{action: "refresh", moved: true, err: c.Refresh(ctx)}
	}
}

func executeCmd(ctx context.Context, d *command.Dispatcher, p navpath.Path, code, value string) tea.Cmd {
	return func() tea.Msg {
		d.Execute(ctx, p, code, value)
		return commandDoneMsg{query: command.Query(p, code, value)}
	}
}
