// Package shelllog renders the scrollback of the embedded shell under the
// panels. It keeps a bounded line log and tails it unless the user has
// scrolled up.
package shelllog

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	shelldomain "bark/internal/modules/shell/domain"
	"bark/internal/ui/theme"
)

const maxLines = 1000

type logLine struct {
	text    string
	tracked bool
	exited  bool
}

type Model struct {
	vp    viewport.Model
	lines []logLine
}

func New() Model {
	return Model{vp: viewport.New(0, 0)}
}

// RawLog returns the unstyled log for visible-mode replay.
func (m Model) RawLog() []string {
	out := make([]string, len(m.lines))
	for i, l := range m.lines {
		out[i] = l.text
	}
	return out
}

// Absorb appends a drained batch of shell messages. Tracked input that
// extends the previous tracked line replaces it, so incremental prompt
// echoes do not stack up.
func (m *Model) Absorb(batch []shelldomain.Message) {
	changed := false
	for _, msg := range batch {
		switch v := msg.(type) {
		case shelldomain.InputTracked:
			if n := len(m.lines); n > 0 && m.lines[n-1].tracked && samePrompt(m.lines[n-1].text, v.Text) {
				m.lines[n-1].text = v.Text
			} else {
				m.lines = append(m.lines, logLine{text: v.Text, tracked: true})
			}
			changed = true
		case shelldomain.OutputLine:
			m.lines = append(m.lines, logLine{text: v.Text})
			changed = true
		case shelldomain.ShellExited:
			m.lines = append(m.lines, logLine{text: "[shell exited]", exited: true})
			changed = true
		}
	}
	if !changed {
		return
	}
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
	atBottom := m.vp.AtBottom()
	m.vp.SetContent(m.render())
	if atBottom {
		m.vp.GotoBottom()
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.vp.Width = size.Width
		m.vp.Height = size.Height
		m.vp.SetContent(m.render())
		m.vp.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.lines) == 0 {
		return theme.Muted.Render("shell output appears here; ctrl+o to enter the shell")
	}
	return m.vp.View()
}

func (m Model) render() string {
	styled := make([]string, len(m.lines))
	for i, l := range m.lines {
		switch {
		case l.tracked:
			styled[i] = theme.Hot.Render(l.text)
		case l.exited:
			styled[i] = theme.Bad.Render(l.text)
		default:
			styled[i] = l.text
		}
	}
	return strings.Join(styled, "\n")
}

// samePrompt reports whether two tracked lines carry the same "cwd> "
// prefix, meaning the newer one supersedes the older echo.
func samePrompt(prev, next string) bool {
	return promptPrefix(prev) == promptPrefix(next)
}

func promptPrefix(line string) string {
	if idx := strings.Index(line, "> "); idx >= 0 {
		return line[:idx+2]
	}
	return line
}
