package goals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	goaldto "studyhub/internal/modules/goal/dto"
	"studyhub/internal/platform/clock"
	"studyhub/internal/ui/components"
	"studyhub/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type GoalPort interface {
	Week(ctx context.Context, day time.Time) (goaldto.WeekOutput, error)
	Strip(ctx context.Context, day time.Time, before, after int) ([]goaldto.SummaryOutput, error)
	Create(ctx context.Context, subject, color string, day time.Time, topics []string) (goaldto.GoalOutput, error)
	Update(ctx context.Context, goalID, subject, color string) (goaldto.GoalOutput, error)
	Delete(ctx context.Context, goalID string) error
	AddTopic(ctx context.Context, goalID, title string) (goaldto.GoalOutput, error)
	ToggleTopic(ctx context.Context, goalID, topicID string) (goaldto.GoalOutput, error)
	DeleteTopic(ctx context.Context, goalID, topicID string) (goaldto.GoalOutput, error)
	Export(ctx context.Context, day time.Time) (goaldto.ExportOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// WeekLoadedMsg answers a week fetch. Seq lets the view drop answers for a
// week the user already navigated away from.
type WeekLoadedMsg struct {
	Seq  int
	Week goaldto.WeekOutput
	Err  error
}

type StripLoadedMsg struct {
	Seq   int
	Strip []goaldto.SummaryOutput
	Err   error
}

// MutatedMsg reports the end of one goal mutation. Goal is the server
// snapshot to adopt.
type MutatedMsg struct {
	Key     string
	Op      string
	GoalID  string
	Goal    goaldto.GoalOutput
	Created bool
	Deleted bool
	Err     error
}

type ExportedMsg struct {
	Out goaldto.ExportOutput
	Err error
}

const (
	promptOwner   = "goals"
	purposeGoal   = "goal"
	purposeTopic  = "topic"
	purposeRename = "rename"
	newGoalKey    = "new-goal"

	stripBefore = 1
	stripAfter  = 2
)

// ─── rows ────────────────────────────────────────────────────────────────────

type row struct {
	goalID  string
	topicID string
}

func (r row) entityID() string {
	if r.topicID != "" {
		return r.topicID
	}
	return r.goalID
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    GoalPort
	clock   clock.Clock
	logger  *slog.Logger
	day     time.Time
	week    goaldto.WeekOutput
	strip   []goaldto.SummaryOutput
	seq     int
	pending map[string]string
	cursor  int
	offset  int
	prompt  components.Prompt
	spinner spinner.Model
	loading bool
	loadErr error
	width   int
	height  int
}

func New(port GoalPort, clk clock.Clock, logger *slog.Logger) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		clock:   clk,
		logger:  logger,
		day:     clk.Now(),
		pending: map[string]string{},
		prompt:  components.NewPrompt(promptOwner),
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.stripCmd(), m.spinner.Tick)
}

func (m Model) Typing() bool { return m.prompt.Visible() }

func (m Model) Pending(entityID string) bool {
	_, ok := m.pending[entityID]
	return ok
}

func (m Model) Week() goaldto.WeekOutput { return m.week }

func (m Model) Strip() []goaldto.SummaryOutput { return m.strip }

func (m Model) Loading() bool { return m.loading }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prompt.SetWidth(min(m.width-4, 60))
		return m, nil

	case WeekLoadedMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		m.loading = false
		m.loadErr = msg.Err
		if msg.Err != nil {
			m.logger.Error("load week failed", slog.String("err", msg.Err.Error()))
			return m, nil
		}
		m.week = msg.Week
		m.clampCursor()
		return m, nil

	case StripLoadedMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		if msg.Err != nil {
			m.logger.Error("load week strip failed", slog.String("err", msg.Err.Error()))
			return m, nil
		}
		m.strip = msg.Strip
		return m, nil

	case MutatedMsg:
		return m.applyMutation(msg)

	case ExportedMsg:
		if msg.Err != nil {
			m.logger.Error("export week failed", slog.String("err", msg.Err.Error()))
			return m, nil
		}
		return m, components.Status(fmt.Sprintf("exported %d goals to %s", msg.Out.Count, msg.Out.Path))

	case components.PromptSubmitMsg:
		if msg.Owner != promptOwner {
			return m, nil
		}
		return m.submitPrompt(msg)

	case spinner.TickMsg:
		if !m.loading && len(m.pending) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.prompt.Visible() {
			var cmd tea.Cmd
			m.prompt, cmd = m.prompt.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// Week navigation stays available while a week is loading.
	switch msg.String() {
	case "left", "h", "[":
		return m.PrevWeek()
	case "right", "l", "]":
		return m.NextWeek()
	case "t":
		return m.Today()
	}
	if m.loading {
		return m, nil
	}

	rows := m.rows()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "enter", " ":
		return m.ToggleSelected()
	case "n":
		cmd := m.prompt.Open(purposeGoal, "", "New goal  (subject: topic, topic)", "")
		return m, cmd
	case "a":
		if r, ok := m.current(rows); ok {
			cmd := m.prompt.Open(purposeTopic, r.goalID, "New topic", "")
			return m, cmd
		}
	case "e":
		if r, ok := m.current(rows); ok {
			g, _ := m.find(r.goalID)
			cmd := m.prompt.Open(purposeRename, r.goalID, "Rename goal", g.Subject)
			return m, cmd
		}
	case "d", "x":
		return m.DeleteSelected()
	case "w":
		return m.Export()
	case "r":
		return m.Reload()
	}
	m.clampCursor()
	return m, nil
}

// ─── actions (also reachable from the command palette) ───────────────────────

func (m Model) PrevWeek() (Model, tea.Cmd) { return m.jump(m.day.AddDate(0, 0, -7)) }

func (m Model) NextWeek() (Model, tea.Cmd) { return m.jump(m.day.AddDate(0, 0, 7)) }

func (m Model) Today() (Model, tea.Cmd) { return m.jump(m.clock.Now()) }

func (m Model) Reload() (Model, tea.Cmd) { return m.jump(m.day) }

func (m Model) jump(day time.Time) (Model, tea.Cmd) {
	m.day = day
	m.seq++
	m.loading = true
	m.cursor, m.offset = 0, 0
	return m, tea.Batch(m.loadCmd(), m.stripCmd(), m.spinner.Tick)
}

// AddGoal creates a goal in the displayed week from "subject: topic, topic".
func (m Model) AddGoal(input string) (Model, tea.Cmd) {
	subject, topics := ParseGoalInput(input)
	if subject == "" || m.Pending(newGoalKey) {
		return m, nil
	}
	m.pending[newGoalKey] = "adding"
	port, day := m.port, m.day
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Create(context.Background(), subject, "", day, topics)
		return MutatedMsg{Key: newGoalKey, Op: "create goal", GoalID: out.ID, Goal: out, Created: true, Err: err}
	})
}

// AddTopic appends a topic to the goal under the cursor.
func (m Model) AddTopic(title string) (Model, tea.Cmd) {
	r, ok := m.current(m.rows())
	if !ok {
		return m, components.Status("no goal selected")
	}
	return m.addTopic(r.goalID, title)
}

// Rename relabels the goal under the cursor.
func (m Model) Rename(subject string) (Model, tea.Cmd) {
	r, ok := m.current(m.rows())
	if !ok {
		return m, components.Status("no goal selected")
	}
	return m.rename(r.goalID, subject)
}

func (m Model) ToggleSelected() (Model, tea.Cmd) {
	r, ok := m.current(m.rows())
	if !ok || r.topicID == "" || m.Pending(r.topicID) {
		return m, nil
	}
	m.pending[r.topicID] = "saving"
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.ToggleTopic(context.Background(), r.goalID, r.topicID)
		return MutatedMsg{Key: r.topicID, Op: "toggle topic", GoalID: r.goalID, Goal: out, Err: err}
	})
}

func (m Model) DeleteSelected() (Model, tea.Cmd) {
	r, ok := m.current(m.rows())
	if !ok || m.Pending(r.entityID()) {
		return m, nil
	}
	key := r.entityID()
	m.pending[key] = "deleting"
	port := m.port
	if r.topicID != "" {
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			out, err := port.DeleteTopic(context.Background(), r.goalID, r.topicID)
			return MutatedMsg{Key: key, Op: "delete topic", GoalID: r.goalID, Goal: out, Err: err}
		})
	}
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		err := port.Delete(context.Background(), r.goalID)
		return MutatedMsg{Key: key, Op: "delete goal", GoalID: r.goalID, Deleted: true, Err: err}
	})
}

func (m Model) Export() (Model, tea.Cmd) {
	port, day := m.port, m.day
	return m, func() tea.Msg {
		out, err := port.Export(context.Background(), day)
		return ExportedMsg{Out: out, Err: err}
	}
}

func (m Model) submitPrompt(msg components.PromptSubmitMsg) (Model, tea.Cmd) {
	if msg.Value == "" {
		return m, nil
	}
	switch msg.Purpose {
	case purposeGoal:
		return m.AddGoal(msg.Value)
	case purposeTopic:
		return m.addTopic(msg.Target, msg.Value)
	case purposeRename:
		return m.rename(msg.Target, msg.Value)
	}
	return m, nil
}

func (m Model) addTopic(goalID, title string) (Model, tea.Cmd) {
	if m.Pending(goalID) {
		return m, nil
	}
	m.pending[goalID] = "adding topic"
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.AddTopic(context.Background(), goalID, title)
		return MutatedMsg{Key: goalID, Op: "add topic", GoalID: goalID, Goal: out, Err: err}
	})
}

func (m Model) rename(goalID, subject string) (Model, tea.Cmd) {
	if m.Pending(goalID) {
		return m, nil
	}
	m.pending[goalID] = "saving"
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Update(context.Background(), goalID, subject, "")
		return MutatedMsg{Key: goalID, Op: "update goal", GoalID: goalID, Goal: out, Err: err}
	})
}

// applyMutation adopts the server snapshot for one goal and refreshes the
// strip, whose counts depend on it. Failures leave the state untouched.
func (m Model) applyMutation(msg MutatedMsg) (Model, tea.Cmd) {
	delete(m.pending, msg.Key)
	if msg.Err != nil {
		m.logger.Error("goal mutation failed",
			slog.String("op", msg.Op),
			slog.String("goal_id", msg.GoalID),
			slog.String("err", msg.Err.Error()))
		return m, nil
	}

	goals := make([]goaldto.GoalOutput, 0, len(m.week.Goals)+1)
	replaced := false
	for _, g := range m.week.Goals {
		if g.ID != msg.GoalID {
			goals = append(goals, g)
			continue
		}
		replaced = true
		if !msg.Deleted {
			goals = append(goals, msg.Goal)
		}
	}
	if !replaced && msg.Created && m.inWeek(msg.Goal) {
		goals = append(goals, msg.Goal)
	}
	m.week.Goals = goals
	m.clampCursor()
	return m, m.stripCmd()
}

// ParseGoalInput splits "subject: topic, topic" into its parts. Blank topics
// are dropped.
func ParseGoalInput(input string) (string, []string) {
	subject, rest, _ := strings.Cut(input, ":")
	var topics []string
	for _, t := range strings.Split(rest, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return strings.TrimSpace(subject), topics
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) rows() []row {
	var rows []row
	for _, g := range m.week.Goals {
		rows = append(rows, row{goalID: g.ID})
		for _, t := range g.Topics {
			rows = append(rows, row{goalID: g.ID, topicID: t.ID})
		}
	}
	return rows
}

func (m Model) current(rows []row) (row, bool) {
	if m.cursor < 0 || m.cursor >= len(rows) {
		return row{}, false
	}
	return rows[m.cursor], true
}

func (m Model) find(goalID string) (goaldto.GoalOutput, bool) {
	for _, g := range m.week.Goals {
		if g.ID == goalID {
			return g, true
		}
	}
	return goaldto.GoalOutput{}, false
}

func (m Model) inWeek(g goaldto.GoalOutput) bool {
	return !g.WeekStart.Before(m.week.Start) && !g.WeekStart.After(m.week.End)
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m Model) listHeight() int {
	if h := m.height - 9; h > 0 {
		return h
	}
	return 20
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) loadCmd() tea.Cmd {
	port, day, seq := m.port, m.day, m.seq
	return func() tea.Msg {
		week, err := port.Week(context.Background(), day)
		return WeekLoadedMsg{Seq: seq, Week: week, Err: err}
	}
}

func (m Model) stripCmd() tea.Cmd {
	port, day, seq := m.port, m.day, m.seq
	return func() tea.Msg {
		strip, err := port.Strip(context.Background(), day, stripBefore, stripAfter)
		return StripLoadedMsg{Seq: seq, Strip: strip, Err: err}
	}
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.renderStrip() + "\n\n")

	if m.loading {
		sb.WriteString(m.spinner.View() + " Loading week…")
		return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(sb.String())
	}

	done, total := 0, 0
	for _, g := range m.week.Goals {
		for _, t := range g.Topics {
			total++
			if t.Completed {
				done++
			}
		}
	}
	header := theme.Title.Render("Week of "+m.week.Label) + "  " +
		theme.Muted.Render(fmt.Sprintf("%d goals · %d/%d topics", len(m.week.Goals), done, total))
	if m.Pending(newGoalKey) {
		header += "  " + theme.Hot.Render(m.spinner.View()+" adding goal")
	}
	sb.WriteString(header + "\n\n")

	rows := m.rows()
	switch {
	case m.loadErr != nil:
		sb.WriteString(theme.Muted.Render("Could not load this week. Press r to retry.") + "\n")
	case len(rows) == 0:
		sb.WriteString(theme.Muted.Render("No goals this week. Press n to add one.") + "\n")
	}

	end := min(len(rows), m.offset+m.listHeight())
	for i := m.offset; i < end; i++ {
		sb.WriteString(m.renderRow(rows[i], i == m.cursor) + "\n")
	}

	if m.prompt.Visible() {
		sb.WriteString("\n" + m.prompt.View() + "\n")
	} else {
		sb.WriteString("\n" + theme.Muted.Render("←/→ week · t today · n goal · a topic · space toggle · e rename · d delete · w export"))
	}
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(sb.String())
}

func (m Model) renderStrip() string {
	if len(m.strip) == 0 {
		return ""
	}
	cells := make([]string, 0, len(m.strip))
	for _, s := range m.strip {
		body := s.Label + "\n" + theme.Muted.Render(fmt.Sprintf("%d goals · %d/%d", s.Count, s.CompletedTopics, s.TotalTopics))
		style := theme.Pane.Padding(0, 1)
		if s.WeekStart.Equal(m.week.Start) {
			style = theme.PaneActive.Padding(0, 1)
		}
		cells = append(cells, style.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m Model) renderRow(r row, selected bool) string {
	g, _ := m.find(r.goalID)
	cursor := "  "
	if selected {
		cursor = theme.Selected.Render("› ")
	}

	var line string
	if r.topicID == "" {
		name := g.Subject
		if selected {
			name = theme.Selected.Render(name)
		}
		line = fmt.Sprintf("%s %s  %s", theme.Swatch(g.Color), name, components.ProgressBar(g.Progress, 20))
	} else {
		for _, t := range g.Topics {
			if t.ID != r.topicID {
				continue
			}
			box := "[ ]"
			title := t.Title
			if t.Completed {
				box = theme.Done.Render("[x]")
				title = theme.Muted.Render(title)
			}
			if selected {
				title = theme.Selected.Render(t.Title)
			}
			line = "    " + box + " " + title
		}
	}
	if verb, ok := m.pending[r.entityID()]; ok {
		line += "  " + theme.Hot.Render(m.spinner.View()+" "+verb)
	}
	return cursor + line
}
