package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studyhub/internal/ui/theme"
)

// PromptSubmitMsg carries the confirmed value back to the view that opened
// the prompt. Owner and Purpose are echoed from Open.
type PromptSubmitMsg struct {
	Owner   string
	Purpose string
	Target  string
	Value   string
}

// PromptCancelMsg is emitted when the user presses esc.
type PromptCancelMsg struct {
	Owner   string
	Purpose string
}

var promptStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(theme.Lavender).
	Padding(0, 1)

// Prompt is a single-line input a view opens to collect a name or title.
// Several views may hold a Prompt at once, so every message is tagged with
// the owner given to NewPrompt.
type Prompt struct {
	owner   string
	purpose string
	target  string
	label   string
	input   textinput.Model
	visible bool
	width   int
}

func NewPrompt(owner string) Prompt {
	ti := textinput.New()
	ti.CharLimit = 200
	return Prompt{owner: owner, input: ti}
}

// Open shows the prompt. target identifies the entity the value applies to
// and is returned untouched in PromptSubmitMsg.
func (p *Prompt) Open(purpose, target, label, initial string) tea.Cmd {
	p.purpose = purpose
	p.target = target
	p.label = label
	p.visible = true
	p.input.Placeholder = ""
	p.input.SetValue(initial)
	p.input.CursorEnd()
	return p.input.Focus()
}

func (p Prompt) Visible() bool { return p.visible }

func (p *Prompt) SetWidth(w int) { p.width = w }

func (p Prompt) Update(msg tea.Msg) (Prompt, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.visible = false
			p.input.Blur()
			cancel := PromptCancelMsg{Owner: p.owner, Purpose: p.purpose}
			return p, func() tea.Msg { return cancel }
		case "enter":
			submit := PromptSubmitMsg{
				Owner:   p.owner,
				Purpose: p.purpose,
				Target:  p.target,
				Value:   strings.TrimSpace(p.input.Value()),
			}
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return submit }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Prompt) View() string {
	if !p.visible {
		return ""
	}
	body := theme.Title.Render(p.label) + "\n" + p.input.View() + "\n" +
		theme.Muted.Render("enter confirm · esc cancel")
	w := p.width
	if w < 20 {
		w = 48
	}
	return promptStyle.Width(w - 2).Render(body)
}
