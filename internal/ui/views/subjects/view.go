package subjects

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	subjectdto "studyhub/internal/modules/subject/dto"
	"studyhub/internal/ui/components"
	"studyhub/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type SubjectPort interface {
	List(ctx context.Context) ([]subjectdto.SubjectOutput, error)
	Create(ctx context.Context, name, color string) (subjectdto.SubjectOutput, error)
	Delete(ctx context.Context, subjectID string) error
	SetColor(ctx context.Context, subjectID, color, current string) (subjectdto.SubjectOutput, error)
	AddSection(ctx context.Context, subjectID, name string) (subjectdto.SubjectOutput, error)
	DeleteSection(ctx context.Context, subjectID, sectionID string) (subjectdto.SubjectOutput, error)
	AddTopic(ctx context.Context, subjectID, sectionID, name string) (subjectdto.SubjectOutput, error)
	DeleteTopic(ctx context.Context, subjectID, sectionID, topicID string) (subjectdto.SubjectOutput, error)
	Export(ctx context.Context, subjectID string) (subjectdto.ExportOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// LoadedMsg carries a full list. Seq is the load generation it answers;
// lists older than the latest reload or adopted mutation are dropped.
type LoadedMsg struct {
	Seq      int
	Subjects []subjectdto.SubjectOutput
	Err      error
}

// MutatedMsg reports the end of one mutation. Key is the pending entry the
// mutation held; Subject is the server snapshot to adopt.
type MutatedMsg struct {
	Key       string
	Op        string
	SubjectID string
	Subject   subjectdto.SubjectOutput
	Created   bool
	Deleted   bool
	Err       error
}

type ExportedMsg struct {
	Out subjectdto.ExportOutput
	Err error
}

// ─── rows ────────────────────────────────────────────────────────────────────

type rowKind int

const (
	rowSubject rowKind = iota
	rowSection
	rowTopic
)

type row struct {
	kind      rowKind
	subjectID string
	sectionID string
	topicID   string
	label     string
	color     string
	count     int
}

// entityID is the identifier that pending state is keyed by.
func (r row) entityID() string {
	switch r.kind {
	case rowSection:
		return r.sectionID
	case rowTopic:
		return r.topicID
	}
	return r.subjectID
}

const (
	promptOwner   = "subjects"
	purposeNew    = "subject"
	purposeSect   = "section"
	purposeTopic  = "topic"
	newSubjectKey = "new-subject"
)

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     SubjectPort
	logger   *slog.Logger
	subjects []subjectdto.SubjectOutput
	expanded map[string]bool
	// pending maps an entity ID to the verb of its in-flight mutation.
	pending map[string]string
	cursor  int
	offset  int
	prompt  components.Prompt
	spinner spinner.Model
	loading bool
	seq     int
	loadErr error
	width   int
	height  int
}

func New(port SubjectPort, logger *slog.Logger) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:     port,
		logger:   logger,
		expanded: map[string]bool{},
		pending:  map[string]string{},
		prompt:   components.NewPrompt(promptOwner),
		spinner:  sp,
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

// Typing reports whether the view's prompt is open, in which case the root
// model must not interpret keys.
func (m Model) Typing() bool { return m.prompt.Visible() }

// Pending reports whether a mutation on the entity is in flight.
func (m Model) Pending(entityID string) bool {
	_, ok := m.pending[entityID]
	return ok
}

func (m Model) Subjects() []subjectdto.SubjectOutput { return m.subjects }

func (m Model) Loading() bool { return m.loading }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prompt.SetWidth(min(m.width-4, 60))
		return m, nil

	case LoadedMsg:
		if msg.Seq != m.seq {
			if m.loading {
				cmd := m.loadCmd()
				return m, cmd
			}
			return m, nil
		}
		m.loading = false
		m.loadErr = msg.Err
		if msg.Err != nil {
			m.logger.Error("load subjects failed", slog.String("err", msg.Err.Error()))
			return m, nil
		}
		m.subjects = msg.Subjects
		m.clampCursor()
		return m, nil

	case MutatedMsg:
		return m.applyMutation(msg)

	case ExportedMsg:
		if msg.Err != nil {
			m.logger.Error("export subject failed", slog.String("err", msg.Err.Error()))
			return m, nil
		}
		return m, components.Status(fmt.Sprintf("exported %d topics to %s", msg.Out.TopicCount, msg.Out.Path))

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
		if m.loading {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
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
	case "enter", " ", "right", "l":
		if r, ok := m.current(rows); ok && r.kind != rowTopic {
			m.expanded[r.entityID()] = !m.expanded[r.entityID()]
		}
	case "left", "h":
		if r, ok := m.current(rows); ok {
			m.collapse(r, rows)
		}
	case "n":
		cmd := m.prompt.Open(purposeNew, "", "New subject", "")
		return m, cmd
	case "a":
		return m.openAddPrompt()
	case "d", "x":
		return m.DeleteSelected()
	case "c":
		return m.CycleColor()
	case "e":
		return m.ExportSelected()
	case "r":
		return m.Reload()
	}
	m.clampCursor()
	return m, nil
}

// ─── actions (also reachable from the command palette) ───────────────────────

func (m Model) Reload() (Model, tea.Cmd) {
	m.loading = true
	m.seq++
	return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m Model) AddSubject(name string) (Model, tea.Cmd) {
	if m.Pending(newSubjectKey) {
		return m, nil
	}
	m.pending[newSubjectKey] = "adding"
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Create(context.Background(), name, "")
		return MutatedMsg{Key: newSubjectKey, Op: "create subject", SubjectID: out.ID, Subject: out, Created: true, Err: err}
	})
}

// AddSection adds a section to the subject under the cursor.
func (m Model) AddSection(name string) (Model, tea.Cmd) {
	r, ok := m.current(m.rows())
	if !ok {
		return m, components.Status("no subject selected")
	}
	return m.addSection(r.subjectID, name)
}

// AddTopic adds a topic to the section under the cursor.
func (m Model) AddTopic(name string) (Model, tea.Cmd) {
	r, ok := m.current(m.rows())
	if !ok || r.kind == rowSubject {
		return m, components.Status("no section selected")
	}
	return m.addTopic(r.subjectID, r.sectionID, name)
}

func (m Model) DeleteSelected() (Model, tea.Cmd) {
	r, ok := m.current(m.rows())
	if !ok || m.Pending(r.entityID()) {
		return m, nil
	}
	key := r.entityID()
	m.pending[key] = "deleting"
	port := m.port
	tick := m.spinner.Tick
	switch r.kind {
	case rowSection:
		return m, tea.Batch(tick, func() tea.Msg {
			out, err := port.DeleteSection(context.Background(), r.subjectID, r.sectionID)
			return MutatedMsg{Key: key, Op: "delete section", SubjectID: r.subjectID, Subject: out, Err: err}
		})
	case rowTopic:
		return m, tea.Batch(tick, func() tea.Msg {
			out, err := port.DeleteTopic(context.Background(), r.subjectID, r.sectionID, r.topicID)
			return MutatedMsg{Key: key, Op: "delete topic", SubjectID: r.subjectID, Subject: out, Err: err}
		})
	default:
		return m, tea.Batch(tick, func() tea.Msg {
			err := port.Delete(context.Background(), r.subjectID)
			return MutatedMsg{Key: key, Op: "delete subject", SubjectID: r.subjectID, Deleted: true, Err: err}
		})
	}
}

// CycleColor moves the selected subject to the next palette colour.
func (m Model) CycleColor() (Model, tea.Cmd) {
	r, ok := m.current(m.rows())
	if !ok || m.Pending(r.subjectID) {
		return m, nil
	}
	subject, _ := m.find(r.subjectID)
	m.pending[r.subjectID] = "recolouring"
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.SetColor(context.Background(), subject.ID, "", subject.Color)
		return MutatedMsg{Key: subject.ID, Op: "set color", SubjectID: subject.ID, Subject: out, Err: err}
	})
}

func (m Model) ExportSelected() (Model, tea.Cmd) {
	r, ok := m.current(m.rows())
	if !ok {
		return m, components.Status("no subject selected")
	}
	port := m.port
	return m, func() tea.Msg {
		out, err := port.Export(context.Background(), r.subjectID)
		return ExportedMsg{Out: out, Err: err}
	}
}

func (m Model) openAddPrompt() (Model, tea.Cmd) {
	r, ok := m.current(m.rows())
	if !ok {
		cmd := m.prompt.Open(purposeNew, "", "New subject", "")
		return m, cmd
	}
	if r.kind == rowSubject {
		cmd := m.prompt.Open(purposeSect, r.subjectID, "New section in "+r.label, "")
		return m, cmd
	}
	cmd := m.prompt.Open(purposeTopic, r.subjectID+"/"+r.sectionID, "New topic", "")
	return m, cmd
}

func (m Model) submitPrompt(msg components.PromptSubmitMsg) (Model, tea.Cmd) {
	if msg.Value == "" {
		return m, nil
	}
	switch msg.Purpose {
	case purposeNew:
		return m.AddSubject(msg.Value)
	case purposeSect:
		return m.addSection(msg.Target, msg.Value)
	case purposeTopic:
		subjectID, sectionID, _ := strings.Cut(msg.Target, "/")
		return m.addTopic(subjectID, sectionID, msg.Value)
	}
	return m, nil
}

func (m Model) addSection(subjectID, name string) (Model, tea.Cmd) {
	if m.Pending(subjectID) {
		return m, nil
	}
	m.pending[subjectID] = "adding section"
	m.expanded[subjectID] = true
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.AddSection(context.Background(), subjectID, name)
		return MutatedMsg{Key: subjectID, Op: "add section", SubjectID: subjectID, Subject: out, Err: err}
	})
}

func (m Model) addTopic(subjectID, sectionID, name string) (Model, tea.Cmd) {
	if m.Pending(sectionID) {
		return m, nil
	}
	m.pending[sectionID] = "adding topic"
	m.expanded[sectionID] = true
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.AddTopic(context.Background(), subjectID, sectionID, name)
		return MutatedMsg{Key: sectionID, Op: "add topic", SubjectID: subjectID, Subject: out, Err: err}
	})
}

// applyMutation adopts the server snapshot for one subject. Failures leave
// the previous state untouched.
func (m Model) applyMutation(msg MutatedMsg) (Model, tea.Cmd) {
	delete(m.pending, msg.Key)
	if msg.Err != nil {
		m.logger.Error("subject mutation failed",
			slog.String("op", msg.Op),
			slog.String("subject_id", msg.SubjectID),
			slog.String("err", msg.Err.Error()))
		return m, nil
	}
	// A list requested before this snapshot may predate it.
	m.seq++

	next := make([]subjectdto.SubjectOutput, 0, len(m.subjects)+1)
	replaced := false
	for _, s := range m.subjects {
		if s.ID != msg.SubjectID {
			next = append(next, s)
			continue
		}
		replaced = true
		if !msg.Deleted {
			next = append(next, msg.Subject)
		}
	}
	if !replaced && msg.Created {
		next = append(next, msg.Subject)
	}
	if msg.Deleted {
		delete(m.expanded, msg.SubjectID)
	}
	m.subjects = next
	m.clampCursor()
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) rows() []row {
	var rows []row
	for _, s := range m.subjects {
		rows = append(rows, row{kind: rowSubject, subjectID: s.ID, label: s.Name, color: s.Color, count: s.TopicCount})
		if !m.expanded[s.ID] {
			continue
		}
		for _, sec := range s.Sections {
			rows = append(rows, row{kind: rowSection, subjectID: s.ID, sectionID: sec.ID, label: sec.Name, count: len(sec.Topics)})
			if !m.expanded[sec.ID] {
				continue
			}
			for _, t := range sec.Topics {
				rows = append(rows, row{kind: rowTopic, subjectID: s.ID, sectionID: sec.ID, topicID: t.ID, label: t.Name})
			}
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

func (m Model) find(subjectID string) (subjectdto.SubjectOutput, bool) {
	for _, s := range m.subjects {
		if s.ID == subjectID {
			return s, true
		}
	}
	return subjectdto.SubjectOutput{}, false
}

// collapse folds the row if it is open, otherwise moves to its parent.
func (m *Model) collapse(r row, rows []row) {
	if r.kind != rowTopic && m.expanded[r.entityID()] {
		m.expanded[r.entityID()] = false
		return
	}
	parent := r.subjectID
	if r.kind == rowTopic {
		parent = r.sectionID
	}
	for i, candidate := range rows {
		if candidate.kind != rowTopic && candidate.entityID() == parent && candidate.kind < r.kind {
			m.cursor = i
			return
		}
	}
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
	if h := m.height - 4; h > 0 {
		return h
	}
	return 20
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) loadCmd() tea.Cmd {
	port, seq := m.port, m.seq
	return func() tea.Msg {
		subjects, err := port.List(context.Background())
		return LoadedMsg{Seq: seq, Subjects: subjects, Err: err}
	}
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading subjects…")
	}

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Subjects"))
	if m.Pending(newSubjectKey) {
		sb.WriteString("  " + theme.Hot.Render(m.spinner.View()+" adding subject"))
	}
	sb.WriteString("\n\n")

	rows := m.rows()
	switch {
	case m.loadErr != nil:
		sb.WriteString(theme.Muted.Render("Could not load subjects. Press r to retry.") + "\n")
	case len(rows) == 0:
		sb.WriteString(theme.Muted.Render("No subjects yet. Press n to add one.") + "\n")
	}

	end := min(len(rows), m.offset+m.listHeight())
	for i := m.offset; i < end; i++ {
		sb.WriteString(m.renderRow(rows[i], i == m.cursor) + "\n")
	}

	if m.prompt.Visible() {
		sb.WriteString("\n" + m.prompt.View() + "\n")
	} else {
		sb.WriteString("\n" + theme.Muted.Render("n subject · a add · d delete · c colour · e export · r reload"))
	}
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(sb.String())
}

func (m Model) renderRow(r row, selected bool) string {
	cursor := "  "
	if selected {
		cursor = theme.Selected.Render("› ")
	}

	var line string
	switch r.kind {
	case rowSubject:
		line = fmt.Sprintf("%s %s %s %s", m.fold(r), theme.Swatch(r.color), r.label,
			theme.Muted.Render(fmt.Sprintf("(%d topics)", r.count)))
	case rowSection:
		line = fmt.Sprintf("    %s %s %s", m.fold(r), r.label, theme.Muted.Render(fmt.Sprintf("(%d)", r.count)))
	case rowTopic:
		line = "        • " + r.label
	}
	if selected {
		line = theme.Selected.Render(line)
	}
	if verb, ok := m.pending[r.entityID()]; ok {
		line += "  " + theme.Hot.Render(m.spinner.View()+" "+verb)
	}
	return cursor + line
}

func (m Model) fold(r row) string {
	if m.expanded[r.entityID()] {
		return "▾"
	}
	return "▸"
}
