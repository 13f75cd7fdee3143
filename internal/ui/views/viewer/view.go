// Package viewer drives a viewer plugin as a pager: every scroll step is
// one viewer_render round-trip, since the plugin owns the formatting.
package viewer

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	plugindto "bark/internal/modules/plugin/dto"
	"bark/internal/ui/theme"
)

type RenderPort interface {
	RenderViewer(ctx context.Context, name, path string, width, height, scroll int) (plugindto.ViewerRender, error)
}

// RenderedMsg carries one finished render.
type RenderedMsg struct {
	Render plugindto.ViewerRender
	Scroll int
	Err    error
}

// ClosedMsg tells the app to leave viewer mode.
type ClosedMsg struct{}

// LaunchedMsg reports that the plugin took over the terminal itself and
// there is nothing to page.
type LaunchedMsg struct{ Plugin string }

type Model struct {
	port   RenderPort
	plugin string
	path   string

	lines      []string
	totalLines int
	scroll     int
	loading    bool
	errText    string
	width      int
	height     int
}

func New(port RenderPort) Model {
	return Model{port: port}
}

// Open starts paging path through the named viewer plugin.
func (m *Model) Open(plugin, path string) tea.Cmd {
	m.plugin = plugin
	m.path = path
	m.scroll = 0
	m.lines = nil
	m.totalLines = 0
	m.errText = ""
	m.loading = true
	return m.renderCmd(0)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.plugin != "" {
			return m, m.renderCmd(m.scroll)
		}

	case RenderedMsg:
		m.loading = false
		if msg.Err != nil {
			m.errText = msg.Err.Error()
			return m, nil
		}
		if msg.Render.Launched {
			return m, func() tea.Msg { return LaunchedMsg{Plugin: m.plugin} }
		}
		m.lines = msg.Render.Lines
		m.totalLines = msg.Render.TotalLines
		m.scroll = msg.Scroll

	case tea.KeyMsg:
		page := m.pageSize()
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return ClosedMsg{} }
		case "up", "k":
			return m.scrollTo(m.scroll - 1)
		case "down", "j":
			return m.scrollTo(m.scroll + 1)
		case "pgup", "b":
			return m.scrollTo(m.scroll - page)
		case "pgdown", " ", "f":
			return m.scrollTo(m.scroll + page)
		case "home", "g":
			return m.scrollTo(0)
		case "end", "G":
			return m.scrollTo(m.totalLines - page)
		}
	}
	return m, nil
}

func (m Model) scrollTo(target int) (Model, tea.Cmd) {
	maxScroll := m.totalLines - m.pageSize()
	if target > maxScroll {
		target = maxScroll
	}
	if target < 0 {
		target = 0
	}
	if target == m.scroll && len(m.lines) > 0 {
		return m, nil
	}
	return m, m.renderCmd(target)
}

func (m Model) View() string {
	header := theme.Title.Render(fmt.Sprintf("%s: %s", m.plugin, m.path))
	footer := theme.Muted.Render(fmt.Sprintf("line %d/%d  q:close", m.scroll+1, m.totalLines))
	switch {
	case m.errText != "":
		return header + "\n\n" + theme.Bad.Render(m.errText) + "\n\n" + footer
	case m.loading:
		return header + "\n\n" + theme.Muted.Render("rendering…")
	}
	return header + "\n" + strings.Join(m.lines, "\n") + "\n" + footer
}

func (m Model) pageSize() int {
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) renderCmd(scroll int) tea.Cmd {
	plugin, path, width, height := m.plugin, m.path, m.width, m.pageSize()
	port := m.port
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		render, err := port.RenderViewer(ctx, plugin, path, width, height, scroll)
		return RenderedMsg{Render: render, Scroll: scroll, Err: err}
	}
}
