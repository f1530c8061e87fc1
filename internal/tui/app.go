package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kennedn/apinav/internal/auth"
	"github.com/kennedn/apinav/internal/command"
	"github.com/kennedn/apinav/internal/console"
	"github.com/kennedn/apinav/internal/listing"
	"github.com/kennedn/apinav/internal/navigator"
	"github.com/kennedn/apinav/internal/navpath"
	"github.com/kennedn/apinav/internal/rangemode"
	"github.com/kennedn/apinav/internal/tui/theme"
)

type viewState int

const (
	stateBrowse viewState = iota
	stateValueInput
	stateLogin
	stateHelp
)

// defaultRangeCode is where the range slider starts for every new path.
const defaultRangeCode = 50

type Deps struct {
	Controller *navigator.Controller
	Dispatcher *command.Dispatcher
	Console    *console.Console
	Auth       *auth.Store
	Cache      *listing.Cache
	BaseURL    string
}

type rowKind int

const (
	kindPending rowKind = iota
	kindBranch
	kindLeaf
	kindExtra
)

type rowItem struct {
	name string
	kind rowKind
	row  navigator.RowState
}

func (i rowItem) Title() string       { return i.name }
func (i rowItem) Description() string { return "" }
func (i rowItem) FilterValue() string { return i.name }

// rangeControl is the slider state shown for range listings.
type rangeControl struct {
	code      int
	withValue bool
	value     string
}

func (r *rangeControl) nudge(delta int) {
	r.code += delta
	if r.code < rangemode.Min {
		r.code = rangemode.Min
	}
	if r.code > rangemode.Max {
		r.code = rangemode.Max
	}
}

// loginForm holds the credential prompt inputs.
type loginForm struct {
	user     textinput.Model
	password textinput.Model
	focus    int
}

type model struct {
	ctx     context.Context
	deps    Deps
	token   string
	state   navigator.State
	nav     viewState
	prev    viewState
	list    list.Model
	console viewport.Model
	input   textinput.Model
	login   loginForm
	spinner spinner.Model
	rng     rangeControl
	// editing is the row whose value is being edited; "" edits the range
	// control.
	editing string
	width   int
	height  int
	toast   *toast
}

type App struct {
	deps Deps
}

func New(deps Deps) *App {
	return &App{deps: deps}
}

// Run starts the browser at the location token and blocks until the user
// quits or ctx is done.
func (a *App) Run(ctx context.Context, token string) error {
	m := initialModel(ctx, a.deps, token)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func newTextInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.TextStyle = theme.TextStyle
	ti.PlaceholderStyle = theme.SubTextStyle
	return ti
}

func initialModel(ctx context.Context, deps Deps, token string) model {
	l := list.New([]list.Item{}, newItemDelegate(50), 0, 0)
	l.DisableQuitKeybindings()
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.FilterInput.Prompt = "/ "
	l.FilterInput.PromptStyle = theme.KeyStyle
	l.FilterInput.TextStyle = theme.TextStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	pass := newTextInput("password")
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return model{
		ctx:     ctx,
		deps:    deps,
		token:   token,
		state:   deps.Controller.State(),
		list:    l,
		console: viewport.New(0, 0),
		input:   newTextInput("value"),
		login:   loginForm{user: newTextInput("username"), password: pass},
		spinner: sp,
		rng:     rangeControl{code: defaultRangeCode},
	}
}

// TEA plumbing

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		startCmd(m.ctx, m.deps.Controller, m.token),
		waitForState(m.deps.Controller.Updates()),
		waitForConsole(m.deps.Console.Updates()),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listWidth := int(float64(msg.Width) * 0.45)
		if listWidth < 30 {
			listWidth = 30
		}
		consoleWidth := msg.Width - listWidth - 8
		if consoleWidth < 20 {
			consoleWidth = 20
		}
		headerHeight := 6
		m.list.SetDelegate(newItemDelegate(listWidth))
		m.list.SetSize(listWidth, msg.Height-headerHeight-4)
		m.console.Width = consoleWidth
		m.console.Height = msg.Height - headerHeight - 6
		return m, nil

	case stateChangedMsg:
		m.applyState(m.deps.Controller.State())
		return m, waitForState(m.deps.Controller.Updates())

	case consoleChangedMsg:
		m.refreshConsole()
		cmd := waitForConsole(m.deps.Console.Updates())
		if m.deps.Auth.PromptRequired() && m.nav != stateLogin {
			return m, tea.Batch(cmd, m.openLogin())
		}
		return m, cmd

	case navDoneMsg:
		if !msg.moved {
			m.toast = newToast("Nothing to go "+msg.action+" to", toastWarning)
			return m, toastExpireCmd()
		}
		if msg.err != nil && m.deps.Auth.PromptRequired() && m.nav != stateLogin {
			return m, m.openLogin()
		}
		return m, nil

	case commandDoneMsg:
		m.toast = newToast("Sent "+msg.query, toastInfo)
		return m, toastExpireCmd()

	case SuccessMsg:
		m.toast = newToast(msg.Message, toastSuccess)
		return m, toastExpireCmd()

	case ErrorMsg:
		m.toast = newToast(msg.Error(), toastError)
		return m, toastExpireCmd()

	case WarningMsg:
		m.toast = newToast(msg.Message, toastWarning)
		return m, toastExpireCmd()

	case InfoMsg:
		m.toast = newToast(msg.Message, toastInfo)
		return m, toastExpireCmd()

	case toastExpiredMsg:
		if m.toast != nil && m.toast.expired() {
			m.toast = nil
		}
		return m, nil
	}

	switch m.nav {
	case stateValueInput:
		return handleValueInput(&m, msg)
	case stateLogin:
		return handleLogin(&m, msg)
	case stateHelp:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "?", "esc", "q":
				m.nav = m.prev
			case "ctrl+c":
				return m, tea.Quit
			}
		}
		return m, nil
	}
	return handleBrowse(&m, msg)
}

// applyState takes a fresh controller snapshot and rebuilds the rows,
// keeping the cursor on the same name when the path did not change.
func (m *model) applyState(st navigator.State) {
	samePath := st.Path.Equal(m.state.Path)
	selected := ""
	if it, ok := m.list.SelectedItem().(rowItem); ok {
		selected = it.name
	}
	if !samePath {
		m.rng = rangeControl{code: defaultRangeCode}
		if m.nav == stateValueInput {
			m.nav = stateBrowse
			m.input.Blur()
		}
	}
	m.state = st

	items := buildItems(st, m.deps.Controller)
	m.list.SetItems(items)
	if samePath && selected != "" {
		for i, item := range items {
			if it, ok := item.(rowItem); ok && it.name == selected {
				m.list.Select(i)
				break
			}
		}
	} else {
		m.list.ResetFilter()
		m.list.Select(0)
	}
}

func buildItems(st navigator.State, c *navigator.Controller) []list.Item {
	if st.Range.IsRange {
		items := make([]list.Item, 0, len(st.Range.Extras))
		for _, extra := range st.Range.Extras {
			items = append(items, rowItem{name: extra, kind: kindExtra, row: c.Row(extra)})
		}
		return items
	}

	items := make([]list.Item, 0, len(st.Items))
	for _, name := range st.Items {
		kind := kindPending
		if info, ok := st.Children[name]; ok {
			kind = kindLeaf
			if info.HasChildren {
				kind = kindBranch
			}
		}
		items = append(items, rowItem{name: name, kind: kind, row: c.Row(name)})
	}
	return items
}

func (m *model) refreshConsole() {
	e, ok := m.deps.Console.Last()
	if !ok {
		m.console.SetContent(theme.DimStyle.Render("No requests yet."))
		return
	}
	header := theme.SectionStyle.Render(e.Label) + " " + theme.DimStyle.Render(e.At.Format("15:04:05"))
	m.console.SetContent(header + "\n\n" + theme.TextStyle.Render(e.Body))
	m.console.GotoTop()
}

func (m *model) openLogin() tea.Cmd {
	creds := m.deps.Auth.Credentials()
	m.prev = stateBrowse
	m.nav = stateLogin
	m.login.user.SetValue(creds.Username)
	m.login.password.SetValue("")
	m.login.focus = 0
	m.login.password.Blur()
	return m.login.user.Focus()
}

func (m *model) openValueInput(name string, current string) tea.Cmd {
	m.editing = name
	m.nav = stateValueInput
	m.input.SetValue(current)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m model) View() string {
	if m.nav == stateHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, renderHelp())
	}
	if m.nav == stateLogin {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderLogin())
	}

	var left string
	if m.state.Range.IsRange {
		left = m.renderRange() + "\n\n" + m.list.View()
	} else {
		left = m.list.View()
	}
	if m.state.Loading {
		left = m.spinner.View() + theme.DimStyle.Render(" Loading...") + "\n\n" + left
	}
	if m.nav == stateValueInput {
		label := m.editing
		if label == "" {
			label = fmt.Sprintf("code %d", m.rng.code)
		}
		left += "\n\n" + theme.KeyStyle.Render(label+" "+theme.IconValue+" ") + m.input.View()
	}
	left = theme.ListFrameStyle.Render(left)

	right := theme.ConsoleFrameStyle.Render(m.console.View())
	if m.toast != nil && !m.toast.expired() {
		styles := toastStyles{
			success: theme.SuccessStyle.Bold(true),
			error:   theme.ErrorStyle.Bold(true),
			warning: theme.WarnStyle.Bold(true),
			info:    theme.SectionStyle.Bold(true),
		}
		right = m.toast.render(styles) + "\n\n" + right
	}

	headerWidth := m.width - 6
	if headerWidth < 20 {
		headerWidth = 20
	}
	location := theme.SectionStyle.Render(navpath.Encode(m.state.Path))
	padding := headerWidth - lipgloss.Width(theme.Logo) - lipgloss.Width(location)
	if padding < 1 {
		padding = 1
	}
	headerLine := theme.Logo + strings.Repeat(" ", padding) + location

	status := theme.DimStyle.Render(m.deps.BaseURL)
	if m.state.Error != "" {
		status = theme.ErrorStyle.Render(m.state.Error)
	}
	headerBox := lipgloss.NewStyle().
		Padding(0, 2).
		MarginTop(1).
		Render(headerLine + "\n" + theme.SeparatorStyle.Render(strings.Repeat("─", headerWidth)) + "\n" + status)

	sep := theme.SeparatorStyle.Render(" │ ")
	footerContent := theme.KeyStyle.Render("enter") + theme.DimStyle.Render(" open/send  ") +
		theme.KeyStyle.Render("v") + theme.DimStyle.Render(" value  ") +
		theme.KeyStyle.Render("bksp") + theme.DimStyle.Render(" up") +
		sep +
		theme.KeyStyle.Render("[ ]") + theme.DimStyle.Render(" back/fwd  ") +
		theme.KeyStyle.Render("r") + theme.DimStyle.Render(" refresh") +
		sep +
		theme.KeyStyle.Render("?") + theme.DimStyle.Render(" help  ") +
		theme.KeyStyle.Render("q") + theme.DimStyle.Render(" quit")

	footer := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.OverlayColor).
		Padding(0, 2).
		Foreground(theme.SubTextColor).
		Render(footerContent)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left,
		headerBox,
		body,
		footer,
	)
}

// Helpers

func (m model) renderRange() string {
	const width = 40
	filled := (m.rng.code - rangemode.Min) * width / (rangemode.Max - rangemode.Min)
	bar := theme.SliderFillStyle.Render(strings.Repeat("█", filled)) +
		theme.SliderTrackStyle.Render(strings.Repeat("░", width-filled))

	line := theme.KeyStyle.Render(theme.IconRange+" ") + bar + " " + theme.TitleStyle.Render(fmt.Sprintf("%3d", m.rng.code))
	if m.rng.withValue {
		line += theme.DimStyle.Render(" "+theme.IconValue+" ") + theme.TextStyle.Render(m.rng.value)
	}
	return line + "\n" + theme.DimStyle.Render("←/→ ±1  </> ±10  s send  V value")
}

func (m model) renderLogin() string {
	field := func(label string, ti textinput.Model, focused bool) string {
		style := theme.DimStyle
		if focused {
			style = theme.KeyStyle
		}
		return style.Width(10).Render(label) + ti.View()
	}
	content := strings.Join([]string{
		theme.TitleStyle.Render("Authentication required"),
		theme.DimStyle.Render(m.deps.BaseURL),
		"",
		field("username", m.login.user, m.login.focus == 0),
		field("password", m.login.password, m.login.focus == 1),
		"",
		theme.KeyStyle.Render("tab") + theme.DimStyle.Render(" switch  ") +
			theme.KeyStyle.Render("enter") + theme.DimStyle.Render(" save  ") +
			theme.KeyStyle.Render("esc") + theme.DimStyle.Render(" cancel"),
	}, "\n")
	return theme.ModalStyle.Render(content)
}

func renderHelp() string {
	helpLine := func(key, desc string) string {
		k := lipgloss.NewStyle().
			Foreground(theme.BaseBg).
			Background(theme.Teal).
			Bold(true).
			Padding(0, 1).
			Width(12).
			Render(key)
		d := lipgloss.NewStyle().Foreground(theme.TextColor).Render("  " + desc)
		return k + d
	}

	sectionHeader := func(title string) string {
		return lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			MarginTop(1).
			Render(" " + title + " ")
	}

	content := strings.Join([]string{
		theme.Logo + theme.DimStyle.Render(" help"),
		sectionHeader("Navigation"),
		helpLine("j / ↓", "move down"),
		helpLine("k / ↑", "move up"),
		helpLine("enter", "open branch / send leaf code"),
		helpLine("backspace", "go to parent"),
		helpLine("[ / ]", "back / forward"),
		helpLine("/", "filter list"),
		sectionHeader("Commands"),
		helpLine("v", "set value for row"),
		helpLine("x", "drop row value"),
		helpLine("← / →", "range code ±1"),
		helpLine("< / >", "range code ±10"),
		helpLine("V", "set range value"),
		helpLine("s", "send range code"),
		sectionHeader("Other"),
		helpLine("r", "refresh"),
		helpLine("L", "log in"),
		helpLine("C", "clear cache"),
		helpLine("?", "toggle this help"),
		helpLine("q / ctrl+c", "quit"),
	}, "\n")
	return theme.ModalStyle.Render(content)
}

type itemDelegate struct {
	listWidth int
}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(rowItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := d.listWidth - 4
	if width < 20 {
		width = 20
	}

	var icon string
	var style lipgloss.Style
	switch i.kind {
	case kindBranch:
		icon, style = theme.IconBranch, theme.BranchStyle
	case kindLeaf, kindExtra:
		icon, style = theme.IconLeaf, theme.LeafStyle
	default:
		icon, style = theme.IconPending, theme.DimStyle
	}

	cursor := "  "
	if selected {
		cursor = style.Bold(true).Render("▌ ")
	}
	line := cursor + style.Render(icon) + " " + theme.TextStyle.Render(i.name)
	if i.row.WithValue {
		line += theme.DimStyle.Render(" "+theme.IconValue+" ") + theme.SubTextStyle.Render(i.row.Value)
	}

	if selected {
		fmt.Fprint(w, theme.SelectedRowStyle.Width(width).Render(line))
		return
	}
	fmt.Fprint(w, line)
}

func newItemDelegate(width int) itemDelegate {
	return itemDelegate{listWidth: width}
}
