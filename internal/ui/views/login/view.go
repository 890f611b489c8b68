package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	accountdto "studyhub/internal/modules/account/dto"
	"studyhub/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type AccountPort interface {
	Login(ctx context.Context, email, password string) (accountdto.UserOutput, error)
	Register(ctx context.Context, name, email, password string) (accountdto.UserOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// AuthenticatedMsg is emitted once login or registration succeeded.
type AuthenticatedMsg struct {
	User accountdto.UserOutput
}

type submittedMsg struct {
	user accountdto.UserOutput
	err  error
}

// ─── model ───────────────────────────────────────────────────────────────────

const (
	fieldName = iota
	fieldEmail
	fieldPassword
	fieldCount
)

type Model struct {
	port       AccountPort
	fields     [fieldCount]textinput.Model
	focus      int
	register   bool
	submitting bool
	err        string
	spinner    spinner.Model
	width      int
	height     int
}

func New(port AccountPort) Model {
	var fields [fieldCount]textinput.Model
	for i := range fields {
		ti := textinput.New()
		ti.CharLimit = 128
		ti.Width = 32
		fields[i] = ti
	}
	fields[fieldName].Placeholder = "name"
	fields[fieldEmail].Placeholder = "email"
	fields[fieldPassword].Placeholder = "password"
	fields[fieldPassword].EchoMode = textinput.EchoPassword
	fields[fieldPassword].EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	m := Model{port: port, fields: fields, focus: fieldEmail, spinner: sp}
	m.fields[fieldEmail].Focus()
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// Registering reports whether the form is in register mode.
func (m Model) Registering() bool { return m.register }

// Err returns the inline error currently shown under the form.
func (m Model) Err() string { return m.err }

// Reset clears the form, used after logout.
func (m Model) Reset() Model {
	fresh := New(m.port)
	fresh.width, fresh.height = m.width, m.height
	return fresh
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case submittedMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.fields[fieldPassword].SetValue("")
		user := msg.user
		return m, func() tea.Msg { return AuthenticatedMsg{User: user} }

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+r":
			m.register = !m.register
			m.err = ""
			if !m.register && m.focus == fieldName {
				cmd := m.setFocus(fieldEmail)
				return m, cmd
			}
			return m, nil
		case "tab", "down":
			cmd := m.setFocus(m.nextField(1))
			return m, cmd
		case "shift+tab", "up":
			cmd := m.setFocus(m.nextField(-1))
			return m, cmd
		case "enter":
			if m.focus != fieldPassword {
				cmd := m.setFocus(m.nextField(1))
				return m, cmd
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m Model) nextField(step int) int {
	next := m.focus
	for {
		next = (next + step + fieldCount) % fieldCount
		if next != fieldName || m.register {
			return next
		}
	}
}

func (m *Model) setFocus(field int) tea.Cmd {
	m.fields[m.focus].Blur()
	m.focus = field
	return m.fields[field].Focus()
}

func (m Model) submit() (Model, tea.Cmd) {
	name := strings.TrimSpace(m.fields[fieldName].Value())
	email := strings.TrimSpace(m.fields[fieldEmail].Value())
	password := m.fields[fieldPassword].Value()
	register := m.register

	m.submitting = true
	m.err = ""
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		var (
			user accountdto.UserOutput
			err  error
		)
		if register {
			user, err = port.Register(context.Background(), name, email, password)
		} else {
			user, err = port.Login(context.Background(), email, password)
		}
		return submittedMsg{user: user, err: err}
	})
}

func (m Model) View() string {
	var sb strings.Builder
	if m.register {
		sb.WriteString(theme.Title.Render("Create an account") + "\n\n")
		sb.WriteString(m.fields[fieldName].View() + "\n")
	} else {
		sb.WriteString(theme.Title.Render("Sign in") + "\n\n")
	}
	sb.WriteString(m.fields[fieldEmail].View() + "\n")
	sb.WriteString(m.fields[fieldPassword].View() + "\n\n")

	switch {
	case m.submitting:
		sb.WriteString(m.spinner.View() + " contacting server…\n")
	case m.err != "":
		sb.WriteString(theme.Error.Render(m.err) + "\n")
	default:
		sb.WriteString("\n")
	}

	toggle := "ctrl+r: create an account"
	if m.register {
		toggle = "ctrl+r: back to sign in"
	}
	sb.WriteString(theme.Muted.Render("tab: next field · enter: submit · " + toggle))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		theme.PaneActive.Render(sb.String()))
}
