package domain

import (
	"fmt"
	"path/filepath"
	"strings"

	"bark/internal/platform/jsonline"
)

type Kind string

const (
	KindStatusBar Kind = "status"
	KindViewer    Kind = "viewer"
	KindOverlay   Kind = "overlay"
	KindProvider  Kind = "provider"
)

// ParseKind maps a manifest "type" value onto a kind. The aliases exist
// because published plugins disagree on spelling.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "status", "statusbar", "status_bar":
		return KindStatusBar, nil
	case "viewer", "view":
		return KindViewer, nil
	case "overlay":
		return KindOverlay, nil
	case "provider":
		return KindProvider, nil
	default:
		return "", fmt.Errorf("unknown plugin type: %q", raw)
	}
}

// Descriptor is one discovered plugin: identity plus the kind-specific
// metadata the manifest declared.
type Descriptor struct {
	Name        string
	Version     string
	Kind        Kind
	Source      string
	Description string
	Icon        string

	// Viewer and provider matching.
	Extensions []string
	Schemes    []string
	Magic      string

	// Viewer behavior.
	NeedsTerminal bool

	// Overlay initial geometry.
	Width  int
	Height int
}

func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if d.Kind == KindProvider && len(d.Schemes) == 0 && len(d.Extensions) == 0 {
		return fmt.Errorf("provider plugin %s declares no schemes and no extensions", d.Name)
	}
	if d.Kind == KindViewer && len(d.Extensions) == 0 && d.Magic == "" {
		return fmt.Errorf("viewer plugin %s declares no extensions and no magic", d.Name)
	}
	return nil
}

// HandlesScheme reports whether the descriptor claims the URI scheme,
// case-insensitively.
func (d Descriptor) HandlesScheme(scheme string) bool {
	for _, s := range d.Schemes {
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}

// CatchAll reports whether the descriptor declared the "*" universal
// extension, the lowest-priority fallback viewers use.
func (d Descriptor) CatchAll() bool {
	for _, ext := range d.Extensions {
		if ext == "*" {
			return true
		}
	}
	return false
}

// HandlesExtension reports whether the lowercased filename ends with one of
// the descriptor's declared extensions. Multi-part extensions such as
// ".tar.gz" work because the match is a plain suffix test.
func (d Descriptor) HandlesExtension(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range d.Extensions {
		if ext != "" && strings.HasSuffix(name, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// ParseManifest extracts the single-line JSON manifest from a plugin's
// discovery output. Anything before the first '{' is tolerated so shebang
// interpreters may print warnings.
func ParseManifest(output, source string) (Descriptor, error) {
	start := strings.IndexByte(output, '{')
	if start < 0 {
		return Descriptor{}, fmt.Errorf("no manifest line in discovery output")
	}
	line := output[start:]
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	obj, err := jsonline.Parse(strings.TrimRight(line, "\r"))
	if err != nil {
		return Descriptor{}, fmt.Errorf("manifest is not a JSON object")
	}
	kind, err := ParseKind(obj.Str("type"))
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{
		Name:          obj.Str("name"),
		Version:       obj.Str("version"),
		Kind:          kind,
		Source:        source,
		Description:   obj.Str("description"),
		Extensions:    obj.Strings("extensions"),
		Schemes:       obj.Strings("schemes"),
		Magic:         obj.Str("magic"),
		NeedsTerminal: obj.Bool("needs_terminal"),
		Width:         int(obj.Int("width")),
		Height:        int(obj.Int("height")),
	}
	if icon := obj.Str("icon"); icon != "" {
		d.Icon = string([]rune(icon)[0])
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Diagnostic records one skipped discovery candidate; startup surfaces the
// whole list so rejected plugins never silently disappear.
type Diagnostic struct {
	Source  string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Source, d.Message)
}
