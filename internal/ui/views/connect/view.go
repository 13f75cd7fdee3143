// Package connect implements the connection dialog: pick a provider plugin
// or a remembered connection, fill in its dialog fields, submit.
package connect

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	historydomain "bark/internal/modules/history/domain"
	plugindomain "bark/internal/modules/plugin/domain"
	providerdomain "bark/internal/modules/provider/domain"
	"bark/internal/ui/components"
	"bark/internal/ui/theme"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type RegistryPort interface {
	ListProviderPlugins() []plugindomain.Descriptor
}

type FieldsPort interface {
	DialogFields(ctx context.Context, source string) ([]providerdomain.DialogField, error)
}

type HistoryPort interface {
	Recent(ctx context.Context) ([]historydomain.SavedConnection, error)
	Forget(ctx context.Context, id string) error
}

// ─── messages ────────────────────────────────────────────────────────────────

// RequestMsg asks the app to start a background connect.
type RequestMsg struct {
	Desc plugindomain.Descriptor
	Cfg  providerdomain.Config
}

// CancelMsg closes the dialog without connecting.
type CancelMsg struct{}

type fieldsLoadedMsg struct {
	desc   plugindomain.Descriptor
	fields []providerdomain.DialogField
	err    error
}

type historyLoadedMsg struct {
	conns []historydomain.SavedConnection
	err   error
}

// ─── model ───────────────────────────────────────────────────────────────────

type stage int

const (
	stagePick stage = iota
	stageLoading
	stageForm
)

type Model struct {
	registry RegistryPort
	fields   FieldsPort
	history  HistoryPort

	stage   stage
	plugins []plugindomain.Descriptor
	saved   []historydomain.SavedConnection
	cursor  int
	errText string

	formDesc plugindomain.Descriptor
	form     components.FieldForm
	width    int
}

func New(registry RegistryPort, fields FieldsPort, history HistoryPort) Model {
	return Model{registry: registry, fields: fields, history: history}
}

// Open resets the dialog to the picker and reloads saved connections.
func (m *Model) Open() tea.Cmd {
	m.stage = stagePick
	m.cursor = 0
	m.errText = ""
	m.plugins = m.registry.ListProviderPlugins()
	m.saved = nil
	return m.loadHistoryCmd()
}

func (m *Model) SetWidth(w int) { m.width = w }

// SetFieldError re-opens the form with a validation message, used when the
// plugin rejects a submitted config.
func (m *Model) SetFieldError(msg string) {
	if m.stage == stageForm {
		m.form.SetError(msg)
	} else {
		m.errText = msg
	}
}

// FocusPassword puts the cursor on the form's password field for an
// auth-rejected retry.
func (m *Model) FocusPassword() {
	if m.stage == stageForm {
		m.form.FocusPassword()
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.err == nil {
			m.saved = msg.conns
		}
		return m, nil

	case fieldsLoadedMsg:
		if msg.err != nil {
			m.stage = stagePick
			m.errText = msg.err.Error()
			return m, nil
		}
		m.stage = stageForm
		m.formDesc = msg.desc
		m.form = components.NewFieldForm("Connect: "+msg.desc.Name, msg.desc.Name, msg.fields)
		return m, nil

	case components.FormSubmitMsg:
		desc := m.formDesc
		cfg := providerdomain.Config{Name: msg.Name, Values: msg.Values}
		if cfg.Name == "" {
			cfg.Name = desc.Name
		}
		return m, func() tea.Msg { return RequestMsg{Desc: desc, Cfg: cfg} }

	case components.FormCancelMsg:
		m.stage = stagePick
		return m, nil

	case tea.KeyMsg:
		if m.stage == stageForm {
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			return m, cmd
		}
		return m.handlePickKey(msg)
	}
	if m.stage == stageForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handlePickKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	total := len(m.saved) + len(m.plugins)
	switch msg.String() {
	case "esc", "q":
		return m, func() tea.Msg { return CancelMsg{} }
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < total-1 {
			m.cursor++
		}
	case "d":
		if m.cursor < len(m.saved) {
			id := m.saved[m.cursor].ID
			m.saved = append(m.saved[:m.cursor], m.saved[m.cursor+1:]...)
			if m.cursor >= len(m.saved)+len(m.plugins) && m.cursor > 0 {
				m.cursor--
			}
			return m, m.forgetCmd(id)
		}
	case "enter":
		if total == 0 {
			return m, nil
		}
		if m.cursor < len(m.saved) {
			saved := m.saved[m.cursor]
			desc, ok := m.pluginByName(saved.Plugin)
			if !ok {
				m.errText = "plugin " + saved.Plugin + " is no longer installed"
				return m, nil
			}
			return m, func() tea.Msg { return RequestMsg{Desc: desc, Cfg: saved.Config} }
		}
		desc := m.plugins[m.cursor-len(m.saved)]
		m.stage = stageLoading
		m.errText = ""
		return m, m.loadFieldsCmd(desc)
	}
	return m, nil
}

func (m Model) View() string {
	switch m.stage {
	case stageForm:
		return m.form.View()
	case stageLoading:
		return theme.Dialog.Render(theme.Muted.Render("loading connection fields…"))
	}

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Connect") + "\n\n")
	row := 0
	if len(m.saved) > 0 {
		sb.WriteString(theme.Muted.Render("Saved connections") + "\n")
		for _, s := range m.saved {
			label := fmt.Sprintf("%s  (%s)", s.Config.Name, s.Plugin)
			sb.WriteString(m.renderRow(label, row) + "\n")
			row++
		}
		sb.WriteString("\n")
	}
	sb.WriteString(theme.Muted.Render("Providers") + "\n")
	if len(m.plugins) == 0 {
		sb.WriteString(theme.Muted.Render("  no provider plugins installed") + "\n")
	}
	for _, d := range m.plugins {
		label := d.Name
		if d.Icon != "" {
			label = d.Icon + " " + label
		}
		if len(d.Schemes) > 0 {
			label += "  " + theme.Muted.Render(strings.Join(d.Schemes, ", "))
		}
		sb.WriteString(m.renderRow(label, row) + "\n")
		row++
	}
	if m.errText != "" {
		sb.WriteString("\n" + theme.Bad.Render(m.errText) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("enter:select  d:forget saved  esc:close"))
	return theme.Dialog.Render(sb.String())
}

func (m Model) renderRow(label string, row int) string {
	if row == m.cursor {
		return theme.Selected.Render("> " + label)
	}
	return "  " + label
}

func (m Model) pluginByName(name string) (plugindomain.Descriptor, bool) {
	for _, d := range m.plugins {
		if d.Name == name {
			return d, true
		}
	}
	return plugindomain.Descriptor{}, false
}

func (m Model) loadFieldsCmd(desc plugindomain.Descriptor) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		fields, err := m.fields.DialogFields(ctx, desc.Source)
		return fieldsLoadedMsg{desc: desc, fields: fields, err: err}
	}
}

func (m Model) loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		conns, err := m.history.Recent(context.Background())
		return historyLoadedMsg{conns: conns, err: err}
	}
}

func (m Model) forgetCmd(id string) tea.Cmd {
	return func() tea.Msg {
		_ = m.history.Forget(context.Background(), id)
		return nil
	}
}
