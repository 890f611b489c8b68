package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	accountdto "studyhub/internal/modules/account/dto"
	"studyhub/internal/platform/clock"
	"studyhub/internal/ui/components"
	"studyhub/internal/ui/theme"
	goalsview "studyhub/internal/ui/views/goals"
	loginview "studyhub/internal/ui/views/login"
	subjectsview "studyhub/internal/ui/views/subjects"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// The account port is the only one used at this level. Feature ports are
// defined by their views and passed straight through.

type accountPort interface {
	Restore(ctx context.Context) (accountdto.RestoreOutput, error)
	Login(ctx context.Context, email, password string) (accountdto.UserOutput, error)
	Register(ctx context.Context, name, email, password string) (accountdto.UserOutput, error)
	Logout(ctx context.Context) error
}

// ─── phases and tabs ─────────────────────────────────────────────────────────

type phase int

const (
	// phaseRestoring renders nothing identity dependent.
	phaseRestoring phase = iota
	phaseLogin
	phaseReady
)

type tabID int

const (
	tabSubjects tabID = iota
	tabGoals
	tabCount
)

var tabLabels = [tabCount]string{"Subjects", "Weekly Goals"}

// ─── async messages ──────────────────────────────────────────────────────────

type restoredMsg struct {
	out accountdto.RestoreOutput
	err error
}

type loggedOutMsg struct{ err error }

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Logout  key.Binding
	Move    key.Binding
	Add     key.Binding
	Delete  key.Binding
	Week    key.Binding
	Toggle  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Move:    key.NewBinding(key.WithKeys("up", "down", "j", "k"), key.WithHelp("↑/↓", "move")),
		Add:     key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n/a", "add")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Week:    key.NewBinding(key.WithKeys("left", "right", "t"), key.WithHelp("←/→/t", "week")),
		Toggle:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("space", "expand/toggle")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Move, k.Toggle},
		{k.Add, k.Delete, k.Week},
		{k.Help, k.Palette, k.Logout, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It gates every feature view behind
// session restore and login, and owns tab routing, the help overlay, the
// command palette and the status bar.
type Model struct {
	account  accountPort
	subjects subjectsview.SubjectPort
	goals    goalsview.GoalPort
	clock    clock.Clock
	logger   *slog.Logger

	phase     phase
	user      accountdto.UserOutput
	loginView loginview.Model
	subjView  subjectsview.Model
	goalView  goalsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(
	account accountPort,
	subjects subjectsview.SubjectPort,
	goals goalsview.GoalPort,
	clk clock.Clock,
	logger *slog.Logger,
) Model {
	return Model{
		account:   account,
		subjects:  subjects,
		goals:     goals,
		clock:     clk,
		logger:    logger,
		phase:     phaseRestoring,
		loginView: loginview.New(loginPortBridge{p: account}),
		activeTab: tabSubjects,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "restoring session…",
	}
}

func (m Model) Init() tea.Cmd {
	return m.restoreCmd()
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case restoredMsg:
		if msg.err != nil {
			m.logger.Error("restore session failed", slog.String("err", msg.err.Error()))
		}
		if msg.err == nil && msg.out.Authenticated {
			return m.enterReady(msg.out.User)
		}
		m.phase = phaseLogin
		m.status = "signed out"
		return m, m.loginView.Init()

	case loginview.AuthenticatedMsg:
		return m.enterReady(msg.User)

	case loggedOutMsg:
		if msg.err != nil {
			m.logger.Error("logout failed", slog.String("err", msg.err.Error()))
		}
		m.phase = phaseLogin
		m.user = accountdto.UserOutput{}
		m.loginView = m.loginView.Reset()
		m.subjView = subjectsview.Model{}
		m.goalView = goalsview.Model{}
		m.status = "signed out"
		return m, m.loginView.Init()

	case components.StatusMsg:
		m.status = msg.Text
		return m, nil
	}

	switch m.phase {
	case phaseRestoring:
		return m, nil
	case phaseLogin:
		var cmd tea.Cmd
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}
	return m.updateReady(msg)
}

func (m Model) updateReady(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to the active view while its prompt takes text.
		if m.activeTyping() {
			return m.updateActive(msg)
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			cmd := m.palette.Open()
			return m, cmd
		case "L":
			return m, m.logoutCmd()
		}
		return m.updateActive(msg)
	}

	// Everything else is an async result or a tick; each view ignores
	// messages it does not own.
	var subjCmd, goalCmd tea.Cmd
	m.subjView, subjCmd = m.subjView.Update(msg)
	m.goalView, goalCmd = m.goalView.Update(msg)
	return m, tea.Batch(subjCmd, goalCmd)
}

func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabSubjects:
		m.subjView, cmd = m.subjView.Update(msg)
	case tabGoals:
		m.goalView, cmd = m.goalView.Update(msg)
	}
	return m, cmd
}

func (m Model) enterReady(user accountdto.UserOutput) (tea.Model, tea.Cmd) {
	m.phase = phaseReady
	m.user = user
	m.status = "signed in as " + user.Email
	m.subjView = subjectsview.New(m.subjects, m.logger)
	m.goalView = goalsview.New(m.goals, m.clock, m.logger)
	m.propagateSize()
	return m, tea.Batch(m.subjView.Init(), m.goalView.Init())
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.phase == phaseRestoring {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("Restoring session…"))
	}

	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.phase == phaseLogin:
		content = m.loginView.View()
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabSubjects:
		return m.subjView.View()
	case tabGoals:
		return m.goalView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	bar := "studyhub"
	if m.phase == phaseReady {
		parts := make([]string, tabCount)
		for i := tabID(0); i < tabCount; i++ {
			label := tabLabels[i]
			if i == m.activeTab {
				parts[i] = theme.Hot.Render(" " + label + " ")
			} else {
				parts[i] = theme.Muted.Render(" " + label + " ")
			}
		}
		bar += "  " + strings.Join(parts, theme.Muted.Render(" │ "))
	}
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("ctrl+c:quit")
	if m.phase == phaseReady {
		left = theme.Hot.Render("● "+m.user.Name) + "  " + left
		right = theme.Muted.Render("?:help  tab:switch  :::palette  L:logout  q:quit")
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	command, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	var cmd tea.Cmd
	switch command {
	case "subject:add", "section:add", "topic:add":
		if arg == "" {
			m.status = "usage: " + command + " <name>"
			return m, nil
		}
		m.activeTab = tabSubjects
		switch command {
		case "subject:add":
			m.subjView, cmd = m.subjView.AddSubject(arg)
		case "section:add":
			m.subjView, cmd = m.subjView.AddSection(arg)
		default:
			m.subjView, cmd = m.subjView.AddTopic(arg)
		}

	case "subject:export":
		m.activeTab = tabSubjects
		m.subjView, cmd = m.subjView.ExportSelected()

	case "color":
		m.activeTab = tabSubjects
		m.subjView, cmd = m.subjView.CycleColor()

	case "goal:add", "goal:topic", "goal:rename":
		if arg == "" {
			m.status = "usage: " + command + " <text>"
			return m, nil
		}
		m.activeTab = tabGoals
		switch command {
		case "goal:add":
			m.goalView, cmd = m.goalView.AddGoal(arg)
		case "goal:topic":
			m.goalView, cmd = m.goalView.AddTopic(arg)
		default:
			m.goalView, cmd = m.goalView.Rename(arg)
		}

	case "week:prev":
		m.activeTab = tabGoals
		m.goalView, cmd = m.goalView.PrevWeek()
	case "week:next":
		m.activeTab = tabGoals
		m.goalView, cmd = m.goalView.NextWeek()
	case "week:today":
		m.activeTab = tabGoals
		m.goalView, cmd = m.goalView.Today()
	case "week:export":
		m.activeTab = tabGoals
		m.goalView, cmd = m.goalView.Export()

	case "reload":
		if m.activeTab == tabSubjects {
			m.subjView, cmd = m.subjView.Reload()
		} else {
			m.goalView, cmd = m.goalView.Reload()
		}

	case "logout":
		cmd = m.logoutCmd()

	default:
		m.status = "unknown command: " + command
		return m, nil
	}
	m.status = "ready"
	return m, cmd
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) activeTyping() bool {
	switch m.activeTab {
	case tabSubjects:
		return m.subjView.Typing()
	case tabGoals:
		return m.goalView.Typing()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.loginView, _ = m.loginView.Update(sz)
	if m.phase == phaseReady {
		m.subjView, _ = m.subjView.Update(sz)
		m.goalView, _ = m.goalView.Update(sz)
	}
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) restoreCmd() tea.Cmd {
	account := m.account
	return func() tea.Msg {
		out, err := account.Restore(context.Background())
		return restoredMsg{out: out, err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	account := m.account
	return func() tea.Msg {
		return loggedOutMsg{err: account.Logout(context.Background())}
	}
}

// ─── port bridges ────────────────────────────────────────────────────────────
// The login view only needs to sign in; it never sees Restore or Logout.

type loginPortBridge struct{ p accountPort }

func (b loginPortBridge) Login(ctx context.Context, email, password string) (accountdto.UserOutput, error) {
	return b.p.Login(ctx, email, password)
}
func (b loginPortBridge) Register(ctx context.Context, name, email, password string) (accountdto.UserOutput, error) {
	return b.p.Register(ctx, name, email, password)
}
