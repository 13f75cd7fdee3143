package domain

import (
	"fmt"
	"strings"
)

// FileEntry is what panels render. Ordering is the panel's business.
type FileEntry struct {
	Name          string
	Path          string
	IsDir         bool
	Size          int64
	Modified      int64 // epoch seconds, 0 when unknown
	IsHidden      bool
	Permissions   uint32
	IsSymlink     bool
	SymlinkTarget string
	Owner         string
	Group         string
}

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldPassword
	FieldNumber
	FieldCheckbox
	FieldSelect
	FieldTextArea
	FieldFilePath
)

// ParseFieldKind maps a dialog field "type" from the wire. Unknown values
// degrade to a plain text input rather than failing the whole dialog.
func ParseFieldKind(raw string) FieldKind {
	switch strings.ToLower(raw) {
	case "password":
		return FieldPassword
	case "number":
		return FieldNumber
	case "checkbox", "bool", "boolean":
		return FieldCheckbox
	case "select":
		return FieldSelect
	case "textarea", "text_area":
		return FieldTextArea
	case "filepath", "file_path", "file":
		return FieldFilePath
	default:
		return FieldText
	}
}

// DialogField describes one input of a provider's connection dialog.
// Field order is focus order.
type DialogField struct {
	ID       string
	Label    string
	Kind     FieldKind
	Default  string
	Required bool
	Help     string
	Options  []string
}

func (f DialogField) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("dialog field id is required")
	}
	if f.Kind == FieldSelect && len(f.Options) == 0 {
		return fmt.Errorf("select field %s has no options", f.ID)
	}
	return nil
}

// Config is the keyed field values for a connection plus its user-visible
// name. Values are strings at the wire; numbers and booleans are
// stringified by the dialog.
type Config struct {
	Name   string
	Values map[string]string
}

// WithValue returns a copy with one value replaced. The receiver is never
// mutated so retry flows can layer a password on a kept config.
func (c Config) WithValue(key, value string) Config {
	values := make(map[string]string, len(c.Values)+1)
	for k, v := range c.Values {
		values[k] = v
	}
	values[key] = value
	return Config{Name: c.Name, Values: values}
}

// Persistable strips the password before the config is written anywhere.
func (c Config) Persistable() Config {
	values := make(map[string]string, len(c.Values))
	for k, v := range c.Values {
		if k == "password" {
			continue
		}
		values[k] = v
	}
	return Config{Name: c.Name, Values: values}
}

// Wire renders the values as the JSON object the plugin expects.
func (c Config) Wire() map[string]any {
	obj := make(map[string]any, len(c.Values))
	for k, v := range c.Values {
		obj[k] = v
	}
	return obj
}
