// Package overlay hosts an overlay plugin's frames: keys go down to the
// plugin, rendered lines come back, the plugin decides when to close.
package overlay

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	providerdto "bark/internal/modules/provider/dto"
	"bark/internal/ui/theme"
)

// Session is the open overlay conversation. Frames carry the full screen
// every time; there is no diffing.
type Session interface {
	Name() string
	SendKey(ctx context.Context, key string, modifiers []string) (providerdto.OverlayRender, error)
	Tick(ctx context.Context) (providerdto.OverlayRender, error)
	WantsTick() bool
	Closed() bool
	Last() providerdto.OverlayRender
	Close()
}

// FrameMsg carries one overlay exchange result.
type FrameMsg struct {
	Frame providerdto.OverlayRender
	Err   error
}

// ClosedMsg tells the app to leave overlay mode.
type ClosedMsg struct{}

type Model struct {
	session Session
	frame   providerdto.OverlayRender
	errText string
}

func New(session Session) Model {
	return Model{session: session, frame: session.Last()}
}

func (m Model) Session() Session { return m.session }

// TickCmd drives plugins that asked for periodic ticks. The app pump calls
// it on its own cadence.
func (m Model) TickCmd() tea.Cmd {
	if !m.session.WantsTick() {
		return nil
	}
	s := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		frame, err := s.Tick(ctx)
		return FrameMsg{Frame: frame, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		if msg.Err != nil {
			m.errText = msg.Err.Error()
			return m, closedCmd
		}
		m.frame = msg.Frame
		if msg.Frame.Close || m.session.Closed() {
			return m, closedCmd
		}

	case tea.KeyMsg:
		key, mods := splitKey(msg)
		if key == "esc" && len(mods) == 0 {
			m.session.Close()
			return m, closedCmd
		}
		s := m.session
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			frame, err := s.SendKey(ctx, key, mods)
			return FrameMsg{Frame: frame, Err: err}
		}
	}
	return m, nil
}

func (m Model) View() string {
	title := m.frame.Title
	if title == "" {
		title = m.session.Name()
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(title) + "\n")
	sb.WriteString(strings.Join(m.frame.Lines, "\n"))
	if m.errText != "" {
		sb.WriteString("\n" + theme.Bad.Render(m.errText))
	}
	style := theme.Dialog
	if m.frame.Width > 0 {
		style = style.Width(m.frame.Width)
	}
	return style.Render(sb.String())
}

func closedCmd() tea.Msg { return ClosedMsg{} }

// splitKey maps a bubbletea key to the protocol's key plus modifier list.
func splitKey(msg tea.KeyMsg) (string, []string) {
	s := msg.String()
	var mods []string
	for _, mod := range []string{"ctrl", "alt", "shift"} {
		prefix := mod + "+"
		if strings.HasPrefix(s, prefix) {
			mods = append(mods, mod)
			s = strings.TrimPrefix(s, prefix)
		}
	}
	if mods == nil {
		mods = []string{}
	}
	return s, mods
}
