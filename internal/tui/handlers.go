package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kennedn/apinav/internal/navigator"
)

func handleBrowse(m *model, msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return *m, cmd
	}

	ctrl := m.deps.Controller
	isRange := m.state.Range.IsRange
	selected, hasSelection := m.list.SelectedItem().(rowItem)

	switch keyMsg.String() {
	case "ctrl+c", "q":
		return *m, tea.Quit

	case "?":
		m.prev = m.nav
		m.nav = stateHelp
		return *m, nil

	case "enter":
		if !hasSelection {
			return *m, nil
		}
		switch selected.kind {
		case kindBranch:
			return *m, openCmd(m.ctx, ctrl, selected.name)
		case kindLeaf, kindExtra:
			return *m, m.sendRow(selected)
		default:
			return *m, NewInfoCmd("Still classifying " + selected.name)
		}

	case "backspace":
		if m.state.Path.IsRoot() {
			return *m, NewWarningCmd("Already at /")
		}
		return *m, upCmd(m.ctx, ctrl)

	case "[":
		return *m, backCmd(m.ctx, ctrl)

	case "]":
		return *m, forwardCmd(m.ctx, ctrl)

	case "r":
		return *m, refreshCmd(m.ctx, ctrl)

	case "L":
		return *m, m.openLogin()

	case "C":
		n := m.deps.Cache.Len()
		if err := m.deps.Cache.Clear(); err != nil {
			return *m, NewErrorCmd(err, "clear cache")
		}
		return *m, tea.Batch(
			NewSuccessCmd("Cleared "+strconv.Itoa(n)+" cached listings"),
			refreshCmd(m.ctx, ctrl),
		)

	case "v":
		if !hasSelection || selected.kind == kindBranch || selected.kind == kindPending {
			return *m, nil
		}
		return *m, m.openValueInput(selected.name, selected.row.Value)

	case "x":
		if hasSelection {
			ctrl.SetRow(selected.name, navigator.RowState{})
		}
		return *m, nil
	}

	if isRange {
		switch keyMsg.String() {
		case "left":
			m.rng.nudge(-1)
			return *m, nil
		case "right":
			m.rng.nudge(1)
			return *m, nil
		case "<":
			m.rng.nudge(-10)
			return *m, nil
		case ">":
			m.rng.nudge(10)
			return *m, nil
		case "V":
			return *m, m.openValueInput("", m.rng.value)
		case "s":
			value := ""
			if m.rng.withValue {
				value = m.rng.value
			}
			return *m, executeCmd(m.ctx, m.deps.Dispatcher, m.state.Path, strconv.Itoa(m.rng.code), value)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return *m, cmd
}

// sendRow dispatches the row name as the code, with its value when the row
// has one enabled.
func (m *model) sendRow(it rowItem) tea.Cmd {
	row := m.deps.Controller.Row(it.name)
	value := ""
	if row.WithValue {
		value = row.Value
	}
	return executeCmd(m.ctx, m.deps.Dispatcher, m.state.Path, it.name, value)
}

func handleValueInput(m *model, msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			value := m.input.Value()
			if m.editing == "" {
				m.rng.value = value
				m.rng.withValue = value != ""
			} else {
				m.deps.Controller.SetRow(m.editing, navigator.RowState{WithValue: value != "", Value: value})
			}
			m.input.Blur()
			m.nav = stateBrowse
			return *m, nil
		case "esc":
			m.input.Blur()
			m.nav = stateBrowse
			return *m, nil
		}
	}
	return *m, cmd
}

func handleLogin(m *model, msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "ctrl+c":
			return *m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			return *m, m.login.toggle()
		case "enter":
			if m.login.focus == 0 {
				return *m, m.login.toggle()
			}
			m.login.user.Blur()
			m.login.password.Blur()
			m.nav = stateBrowse
			if err := m.deps.Auth.Set(m.login.user.Value(), m.login.password.Value()); err != nil {
				return *m, NewErrorCmd(err, "save credentials")
			}
			m.login.password.SetValue("")
			return *m, NewSuccessCmd("Credentials saved")
		case "esc":
			m.login.user.Blur()
			m.login.password.Blur()
			m.deps.Auth.ClosePrompt()
			m.nav = stateBrowse
			return *m, nil
		}
	}

	var cmd tea.Cmd
	if m.login.focus == 0 {
		m.login.user, cmd = m.login.user.Update(msg)
	} else {
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return *m, cmd
}

func (f *loginForm) toggle() tea.Cmd {
	if f.focus == 0 {
		f.focus = 1
		f.user.Blur()
		return f.password.Focus()
	}
	f.focus = 0
	f.password.Blur()
	return f.user.Focus()
}
