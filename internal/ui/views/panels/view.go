// Package panels renders the dual-pane file browser. Panes only know the
// PanelProvider interface; whether a pane shows the local disk or a plugin
// session is decided at connection time.
package panels

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	providerdomain "bark/internal/modules/provider/domain"
	providerin "bark/internal/modules/provider/port/in"
	"bark/internal/ui/theme"
)

// Side identifies a pane.
type Side int

const (
	Left Side = iota
	Right
)

// EntriesLoadedMsg carries a finished directory listing.
type EntriesLoadedMsg struct {
	Side    Side
	Path    string
	Entries []providerdomain.FileEntry
	Err     error
}

// pane is one half of the browser.
type pane struct {
	provider   providerin.PanelProvider
	path       string
	entries    []providerdomain.FileEntry
	cursor     int
	selected   map[string]bool
	showHidden bool
	loading    bool
	errText    string
}

type Model struct {
	panes  [2]pane
	active Side
	width  int
	height int
}

func New(local providerin.PanelProvider, startPath string) Model {
	m := Model{}
	for i := range m.panes {
		m.panes[i] = pane{
			provider: local,
			path:     startPath,
			selected: map[string]bool{},
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(Left), m.loadCmd(Right))
}

// ─── accessors for the app layer ─────────────────────────────────────────────

func (m Model) ActivePath() string { return m.panes[m.active].path }

func (m Model) InactivePath() string { return m.panes[1-m.active].path }

func (m Model) ActiveProvider() providerin.PanelProvider { return m.panes[m.active].provider }

func (m Model) InactiveProvider() providerin.PanelProvider { return m.panes[1-m.active].provider }

// Providers returns each pane's provider, left first.
func (m Model) Providers() []providerin.PanelProvider {
	return []providerin.PanelProvider{m.panes[0].provider, m.panes[1].provider}
}

// CursorEntry returns the entry under the cursor of the active pane.
func (m Model) CursorEntry() (providerdomain.FileEntry, bool) {
	p := m.panes[m.active]
	visible := p.visibleEntries()
	if p.cursor < 0 || p.cursor >= len(visible) {
		return providerdomain.FileEntry{}, false
	}
	return visible[p.cursor], true
}

// SelectedPaths returns the marked entries of the active pane, falling
// back to the cursor entry when nothing is marked.
func (m Model) SelectedPaths() []string {
	p := m.panes[m.active]
	var paths []string
	for _, e := range p.visibleEntries() {
		if p.selected[e.Path] {
			paths = append(paths, e.Path)
		}
	}
	if len(paths) == 0 {
		if e, ok := m.CursorEntry(); ok {
			paths = []string{e.Path}
		}
	}
	return paths
}

func (m Model) SelectedCount() int {
	n := 0
	for range m.panes[m.active].selected {
		n++
	}
	return n
}

// SetProvider points the active pane at a new provider and jumps to its
// home path. The previous provider is returned so the app can disconnect
// plugin sessions that no pane shows anymore.
func (m *Model) SetProvider(p providerin.PanelProvider) (providerin.PanelProvider, tea.Cmd) {
	old := m.panes[m.active].provider
	m.panes[m.active].provider = p
	m.panes[m.active].path = p.HomePath()
	m.panes[m.active].cursor = 0
	m.panes[m.active].selected = map[string]bool{}
	return old, m.loadCmd(m.active)
}

// Reload refreshes both panes, typically after a file operation.
func (m Model) Reload() tea.Cmd {
	return tea.Batch(m.loadCmd(Left), m.loadCmd(Right))
}

func (m Model) ReloadActive() tea.Cmd { return m.loadCmd(m.active) }

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case EntriesLoadedMsg:
		p := &m.panes[msg.Side]
		p.loading = false
		if msg.Err != nil {
			p.errText = msg.Err.Error()
			return m, nil
		}
		p.errText = ""
		p.path = msg.Path
		p.entries = sortEntries(msg.Entries)
		if p.cursor >= len(p.visibleEntries()) {
			p.cursor = 0
		}
		// Drop marks for entries that vanished.
		for sel := range p.selected {
			found := false
			for _, e := range p.entries {
				if e.Path == sel {
					found = true
					break
				}
			}
			if !found {
				delete(p.selected, sel)
			}
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	p := &m.panes[m.active]
	visible := p.visibleEntries()

	switch msg.String() {
	case "tab":
		m.active = 1 - m.active
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(visible)-1 {
			p.cursor++
		}
	case "home", "g":
		p.cursor = 0
	case "end", "G":
		p.cursor = len(visible) - 1
	case "pgup":
		p.cursor = max(0, p.cursor-m.pageSize())
	case "pgdown":
		p.cursor = min(len(visible)-1, p.cursor+m.pageSize())
	case " ":
		if p.cursor >= 0 && p.cursor < len(visible) {
			e := visible[p.cursor]
			if p.selected[e.Path] {
				delete(p.selected, e.Path)
			} else {
				p.selected[e.Path] = true
			}
			if p.cursor < len(visible)-1 {
				p.cursor++
			}
		}
	case "enter", "right", "l":
		if p.cursor >= 0 && p.cursor < len(visible) && visible[p.cursor].IsDir {
			p.path = visible[p.cursor].Path
			p.cursor = 0
			p.selected = map[string]bool{}
			return m, m.loadCmd(m.active)
		}
	case "backspace", "left", "h":
		parent := parentOf(p.path)
		if parent != p.path {
			p.path = parent
			p.cursor = 0
			p.selected = map[string]bool{}
			return m, m.loadCmd(m.active)
		}
	case ".":
		p.showHidden = !p.showHidden
		p.cursor = 0
	}
	return m, nil
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	paneW := m.width/2 - 2
	if paneW < 20 {
		paneW = 20
	}
	left := m.renderPane(Left, paneW)
	right := m.renderPane(Right, paneW)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderPane(side Side, width int) string {
	p := m.panes[side]
	style := theme.Pane
	if side == m.active {
		style = theme.PaneActive
	}

	header := p.provider.DisplayName() + ":" + p.path
	if lipgloss.Width(header) > width-2 {
		header = "…" + header[len(header)-(width-3):]
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(header) + "\n")

	rows := m.pageSize()
	visible := p.visibleEntries()
	start := 0
	if p.cursor >= rows {
		start = p.cursor - rows + 1
	}
	switch {
	case p.errText != "":
		sb.WriteString(theme.Bad.Render(p.errText))
	case p.loading:
		sb.WriteString(theme.Muted.Render("loading…"))
	default:
		for i := start; i < len(visible) && i < start+rows; i++ {
			sb.WriteString(m.renderEntry(p, visible[i], i == p.cursor && side == m.active, width-2) + "\n")
		}
	}
	return style.Width(width).Height(m.height - 2).Render(sb.String())
}

func (m Model) renderEntry(p pane, e providerdomain.FileEntry, underCursor bool, width int) string {
	name := e.Name
	if e.IsDir {
		name += "/"
	}
	if e.IsSymlink && e.SymlinkTarget != "" {
		name += " → " + e.SymlinkTarget
	}
	sizeCol := humanSize(e.Size)
	if e.IsDir {
		sizeCol = "<dir>"
	}
	dateCol := ""
	if e.Modified > 0 {
		dateCol = time.Unix(e.Modified, 0).Format("2006-01-02 15:04")
	}
	line := fmt.Sprintf("%-*s %8s  %s", max(1, width-28), truncate(name, max(1, width-28)), sizeCol, dateCol)

	mark := "  "
	if p.selected[e.Path] {
		mark = theme.Hot.Render("* ")
	}
	switch {
	case underCursor:
		return mark + theme.Selected.Render(line)
	case e.IsDir:
		return mark + theme.DirEntry.Render(line)
	case e.IsHidden:
		return mark + theme.Hidden.Render(line)
	default:
		return mark + line
	}
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) pageSize() int {
	rows := m.height - 5
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m Model) loadCmd(side Side) tea.Cmd {
	p := m.panes[side]
	provider, dir := p.provider, p.path
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		entries, err := provider.ListDirectory(ctx, dir)
		return EntriesLoadedMsg{Side: side, Path: dir, Entries: entries, Err: err}
	}
}

func (p pane) visibleEntries() []providerdomain.FileEntry {
	if p.showHidden {
		return p.entries
	}
	visible := make([]providerdomain.FileEntry, 0, len(p.entries))
	for _, e := range p.entries {
		if !e.IsHidden {
			visible = append(visible, e)
		}
	}
	return visible
}

// sortEntries orders directories first, then case-insensitive by name.
func sortEntries(entries []providerdomain.FileEntry) []providerdomain.FileEntry {
	sorted := make([]providerdomain.FileEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsDir != sorted[j].IsDir {
			return sorted[i].IsDir
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	return sorted
}

// parentOf works for both local paths and the slash paths plugin
// providers use.
func parentOf(p string) string {
	if strings.Contains(p, "\\") {
		return filepath.Dir(p)
	}
	parent := path.Dir(p)
	if parent == "." {
		return p
	}
	return parent
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	return s[:width-1] + "…"
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
