package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	providerdomain "bark/internal/modules/provider/domain"
	"bark/internal/ui/theme"
)

// FormSubmitMsg carries the field values keyed by field id, plus the
// connection name from the dedicated name row.
type FormSubmitMsg struct {
	Name   string
	Values map[string]string
}

// FormCancelMsg is emitted when the user presses esc.
type FormCancelMsg struct{}

type formRow struct {
	field     providerdomain.DialogField
	input     textinput.Model
	checked   bool
	selectIdx int
}

// FieldForm renders a provider's connection dialog fields. Field order is
// focus order; tab and shift+tab move focus, enter submits, esc cancels.
type FieldForm struct {
	title string
	name  textinput.Model
	rows  []formRow
	focus int // 0 is the name row, 1..len(rows) are fields
	err   string
}

func NewFieldForm(title, defaultName string, fields []providerdomain.DialogField) FieldForm {
	name := textinput.New()
	name.Placeholder = "connection name"
	name.CharLimit = 128
	name.SetValue(defaultName)
	name.Focus()

	rows := make([]formRow, 0, len(fields))
	for _, f := range fields {
		ti := textinput.New()
		ti.CharLimit = 512
		ti.SetValue(f.Default)
		if f.Kind == providerdomain.FieldPassword {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		rows = append(rows, formRow{
			field:   f,
			input:   ti,
			checked: f.Default == "true",
		})
	}
	return FieldForm{title: title, name: name, rows: rows}
}

// SetError surfaces a validation message from the plugin under the form.
func (f *FieldForm) SetError(msg string) { f.err = msg }

// FocusPassword moves focus to the first password field, if there is one.
func (f *FieldForm) FocusPassword() {
	for i, row := range f.rows {
		if row.field.Kind == providerdomain.FieldPassword {
			f.setFocus(i + 1)
			return
		}
	}
}

func (f FieldForm) Update(msg tea.Msg) (FieldForm, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if isKey {
		switch key.String() {
		case "esc":
			return f, func() tea.Msg { return FormCancelMsg{} }
		case "enter":
			for _, row := range f.rows {
				if row.field.Required && f.rowValue(row) == "" {
					f.err = row.field.Label + " is required"
					return f, nil
				}
			}
			return f, f.submit()
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return f, nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return f, nil
		}
		if f.focus > 0 {
			row := &f.rows[f.focus-1]
			switch row.field.Kind {
			case providerdomain.FieldCheckbox:
				if key.String() == " " {
					row.checked = !row.checked
				}
				return f, nil
			case providerdomain.FieldSelect:
				switch key.String() {
				case "left":
					row.selectIdx = (row.selectIdx + len(row.field.Options) - 1) % len(row.field.Options)
				case "right", " ":
					row.selectIdx = (row.selectIdx + 1) % len(row.field.Options)
				}
				return f, nil
			}
		}
	}

	var cmd tea.Cmd
	if f.focus == 0 {
		f.name, cmd = f.name.Update(msg)
	} else {
		f.rows[f.focus-1].input, cmd = f.rows[f.focus-1].input.Update(msg)
	}
	return f, cmd
}

func (f *FieldForm) setFocus(idx int) {
	total := len(f.rows) + 1
	f.focus = ((idx % total) + total) % total
	f.name.Blur()
	for i := range f.rows {
		f.rows[i].input.Blur()
	}
	if f.focus == 0 {
		f.name.Focus()
	} else {
		f.rows[f.focus-1].input.Focus()
	}
}

func (f FieldForm) submit() tea.Cmd {
	values := make(map[string]string, len(f.rows))
	for _, row := range f.rows {
		values[row.field.ID] = f.rowValue(row)
	}
	name := strings.TrimSpace(f.name.Value())
	return func() tea.Msg { return FormSubmitMsg{Name: name, Values: values} }
}

func (f FieldForm) rowValue(row formRow) string {
	switch row.field.Kind {
	case providerdomain.FieldCheckbox:
		if row.checked {
			return "true"
		}
		return "false"
	case providerdomain.FieldSelect:
		return row.field.Options[row.selectIdx]
	default:
		return strings.TrimSpace(row.input.Value())
	}
}

func (f FieldForm) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(f.title) + "\n\n")
	sb.WriteString(f.renderLabel("Name", false, f.focus == 0))
	sb.WriteString(f.name.View() + "\n")

	for i, row := range f.rows {
		focused := f.focus == i+1
		sb.WriteString(f.renderLabel(row.field.Label, row.field.Required, focused))
		switch row.field.Kind {
		case providerdomain.FieldCheckbox:
			mark := "[ ]"
			if row.checked {
				mark = "[x]"
			}
			sb.WriteString(mark + "\n")
		case providerdomain.FieldSelect:
			sb.WriteString("‹ " + row.field.Options[row.selectIdx] + " ›\n")
		default:
			sb.WriteString(row.input.View() + "\n")
		}
		if row.field.Help != "" && focused {
			sb.WriteString(theme.Muted.Render("  "+row.field.Help) + "\n")
		}
	}
	if f.err != "" {
		sb.WriteString("\n" + theme.Bad.Render(f.err) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("enter:connect  tab:next  esc:cancel"))
	return theme.Dialog.Render(sb.String())
}

func (f FieldForm) renderLabel(label string, required, focused bool) string {
	if required {
		label += " *"
	}
	if focused {
		return theme.Hot.Render(label) + "\n"
	}
	return theme.Muted.Render(label) + "\n"
}
