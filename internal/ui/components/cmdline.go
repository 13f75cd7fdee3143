package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bark/internal/ui/theme"
)

// CmdSubmitMsg is emitted when the user confirms a shell command.
type CmdSubmitMsg struct{ Input string }

// CmdCancelMsg is emitted when the user presses esc.
type CmdCancelMsg struct{}

var cmdlineStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(theme.Peach).
	Foreground(theme.Text).
	Padding(0, 1)

// Cmdline is the one-line shell prompt overlay backed by bubbles/textinput.
// Submitted lines are run in the embedded shell, not interpreted by bark.
type Cmdline struct {
	input   textinput.Model
	visible bool
	width   int
	cwd     string
}

func NewCmdline() Cmdline {
	ti := textinput.New()
	ti.Placeholder = "shell command…"
	ti.CharLimit = 1024
	return Cmdline{input: ti}
}

func (c Cmdline) Visible() bool { return c.visible }

// Open shows the prompt with the panel's directory as context.
func (c *Cmdline) Open(cwd string) tea.Cmd {
	c.visible = true
	c.cwd = cwd
	c.input.SetValue("")
	return c.input.Focus()
}

func (c *Cmdline) SetWidth(w int) { c.width = w }

func (c Cmdline) Update(msg tea.Msg) (Cmdline, tea.Cmd) {
	if !c.visible {
		return c, nil
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			c.visible = false
			c.input.Blur()
			return c, func() tea.Msg { return CmdCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(c.input.Value())
			c.visible = false
			c.input.Blur()
			return c, func() tea.Msg { return CmdSubmitMsg{Input: val} }
		}
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

func (c Cmdline) View() string {
	if !c.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Muted.Render(c.cwd) + "\n")
	sb.WriteString("$ " + c.input.View())

	w := c.width
	if w < 20 {
		w = 64
	}
	return cmdlineStyle.Width(w - 2).Render(sb.String())
}
