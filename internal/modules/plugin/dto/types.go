package dto

type PluginInfo struct {
	Name       string
	Version    string
	Kind       string
	Source     string
	Icon       string
	Extensions []string
	Schemes    []string
}

// StatusContext is what the status bar tells short-lived status plugins
// about the active panel.
type StatusContext struct {
	Path          string
	SelectedFile  string
	IsDir         bool
	FileSize      int64
	SelectedCount int
}

type StatusLine struct {
	Plugin string
	Text   string
}

type ViewerChoice struct {
	Name     string
	Priority int
}

type ViewerRender struct {
	Lines      []string
	TotalLines int
	// Launched means the plugin handed the file to an external program
	// and the built-in viewer should take over.
	Launched bool
}
