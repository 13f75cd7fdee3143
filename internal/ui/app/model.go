// Package app is the root Bubble Tea model: mode routing, the pump tick
// that drains the shell and polls background tasks, and the glue between
// panels, dialogs, and the plugin host.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	historyin "bark/internal/modules/history/port/in"
	plugindomain "bark/internal/modules/plugin/domain"
	plugindto "bark/internal/modules/plugin/dto"
	providerdomain "bark/internal/modules/provider/domain"
	providerin "bark/internal/modules/provider/port/in"
	shelldomain "bark/internal/modules/shell/domain"
	shellin "bark/internal/modules/shell/port/in"
	taskdomain "bark/internal/modules/task/domain"
	taskdto "bark/internal/modules/task/dto"
	taskin "bark/internal/modules/task/port/in"
	"bark/internal/ui/components"
	"bark/internal/ui/theme"
	connectview "bark/internal/ui/views/connect"
	overlayview "bark/internal/ui/views/overlay"
	panelsview "bark/internal/ui/views/panels"
	shelllogview "bark/internal/ui/views/shelllog"
	viewerview "bark/internal/ui/views/viewer"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type registryPort interface {
	RenderStatus(ctx context.Context, sc plugindto.StatusContext) []plugindto.StatusLine
	FindViewer(ctx context.Context, path string) (plugindomain.Descriptor, bool)
	FindViewerByName(name string) (plugindomain.Descriptor, bool)
	ListViewerPlugins(ctx context.Context, path string) []plugindto.ViewerChoice
	RenderViewer(ctx context.Context, name, path string, width, height, scroll int) (plugindto.ViewerRender, error)
	FindProviderByExtension(path string) (plugindomain.Descriptor, bool)
	ListProviderPlugins() []plugindomain.Descriptor
	Overlays() []plugindomain.Descriptor
}

type fieldsPort interface {
	DialogFields(ctx context.Context, source string) ([]providerdomain.DialogField, error)
}

// OverlayOpener starts an overlay plugin session sized to the content area.
type OverlayOpener func(ctx context.Context, desc plugindomain.Descriptor, width, height int) (overlayview.Session, error)

// ─── modes ───────────────────────────────────────────────────────────────────

type mode int

const (
	modeNormal mode = iota
	modeConnect
	modePassword
	modeConfirm
	modePrompt
	modeBackgroundTask
	modeFileOpProgress
	modeErrorPrompt
	modeOverlayPick
	modeOverlay
	modeViewerPick
	modeViewer
	modeCmdline
	modeHelp
)

// ─── async messages ──────────────────────────────────────────────────────────

type pumpMsg time.Time

type statusRenderedMsg struct {
	lines []plugindto.StatusLine
	free  uint64
	known bool
}

type viewerFoundMsg struct {
	desc plugindomain.Descriptor
	path string
	ok   bool
}

type overlayOpenedMsg struct {
	session overlayview.Session
	err     error
}

type shellReturnedMsg struct {
	kept []shelldomain.Message
	err  error
}

type deleteItemMsg struct {
	path string
	err  error
}

type viewerListMsg struct {
	path    string
	choices []plugindto.ViewerChoice
}

// terminalViewerDoneMsg reports that a needs_terminal viewer gave the
// tty back.
type terminalViewerDoneMsg struct {
	plugin   string
	path     string
	launched bool
	err      error
}

type editReadyMsg struct {
	provider providerin.PanelProvider
	remote   string
	temp     string
	err      error
}

type editClosedMsg struct {
	provider providerin.PanelProvider
	remote   string
	temp     string
	err      error
}

const pumpInterval = 75 * time.Millisecond
const statusInterval = 2 * time.Second

// ─── pending state for retry flows ───────────────────────────────────────────

type pendingConnect struct {
	desc      plugindomain.Descriptor
	cfg       providerdomain.Config
	extension bool
	localPath string
}

type deleteRun struct {
	paths   []string
	idx     int
	skipAll bool
	errors  []string
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	registry registryPort
	fields   fieldsPort
	shell    shellin.Usecase
	tasks    taskin.Runner
	history  historyin.Usecase
	overlays OverlayOpener
	local    providerin.PanelProvider

	panels  panelsview.Model
	log     shelllogview.Model
	connect connectview.Model
	viewer  viewerview.Model
	overlay overlayview.Model
	cmdline components.Cmdline

	mode       mode
	status     string
	spin       spinner.Model
	bar        progress.Model
	task       taskin.Handle
	taskLabel  string
	lastProg   taskdomain.Progress
	pending    pendingConnect
	password   textinput.Model
	prompt     textinput.Model
	promptKind string // "mkdir" or "rename"
	confirmMsg string
	deletion   deleteRun
	deleteErr  string
	overlayOpt []plugindomain.Descriptor
	overlayCur int
	viewerOpt  []plugindto.ViewerChoice
	viewerCur  int
	viewerPath string

	statusLines []plugindto.StatusLine
	freeSpace   uint64
	freeKnown   bool
	lastStatus  time.Time

	width  int
	height int
}

func NewModel(
	registry registryPort,
	fields fieldsPort,
	shell shellin.Usecase,
	tasks taskin.Runner,
	history historyin.Usecase,
	overlays OverlayOpener,
	local providerin.PanelProvider,
	startPath string,
) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	pw := textinput.New()
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'

	return Model{
		registry: registry,
		fields:   fields,
		shell:    shell,
		tasks:    tasks,
		history:  history,
		overlays: overlays,
		local:    local,
		panels:   panelsview.New(local, startPath),
		log:      shelllogview.New(),
		connect:  connectview.New(registryBridge{registry}, fields, history),
		viewer:   viewerview.New(registry),
		cmdline:  components.NewCmdline(),
		spin:     sp,
		bar:      progress.New(progress.WithDefaultGradient()),
		password: pw,
		prompt:   textinput.New(),
		status:   "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.panels.Init(), m.spin.Tick, pumpCmd())
}

func pumpCmd() tea.Cmd {
	return tea.Tick(pumpInterval, func(t time.Time) tea.Msg { return pumpMsg(t) })
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case pumpMsg:
		return m.handlePump()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case statusRenderedMsg:
		m.statusLines = msg.lines
		m.freeSpace = msg.free
		m.freeKnown = msg.known
		return m, nil

	case panelsview.EntriesLoadedMsg:
		var cmd tea.Cmd
		m.panels, cmd = m.panels.Update(msg)
		return m, cmd

	case connectview.RequestMsg:
		return m.startConnect(msg.Desc, msg.Cfg)

	case connectview.CancelMsg:
		m.mode = modeNormal
		return m, nil

	case components.CmdSubmitMsg:
		m.mode = modeNormal
		if msg.Input == "" {
			return m, nil
		}
		if err := m.shell.RunCommand(msg.Input, m.panels.ActivePath()); err != nil {
			m.status = "shell: " + err.Error()
		} else {
			m.status = "running: " + msg.Input
		}
		return m, nil

	case components.CmdCancelMsg:
		m.mode = modeNormal
		return m, nil

	case viewerFoundMsg:
		if !msg.ok {
			m.mode = modeNormal
			m.status = "no viewer plugin handles " + filepath.Base(msg.path)
			return m, nil
		}
		return m.openViewer(msg.desc, msg.path)

	case viewerListMsg:
		if len(msg.choices) == 0 {
			m.status = "no viewer plugin handles " + filepath.Base(msg.path)
			return m, nil
		}
		m.viewerOpt = msg.choices
		m.viewerCur = 0
		m.viewerPath = msg.path
		m.mode = modeViewerPick
		return m, nil

	case terminalViewerDoneMsg:
		if msg.err != nil {
			m.status = "viewer: " + msg.err.Error()
			return m, nil
		}
		if msg.launched {
			m.status = msg.plugin + " closed"
			return m, m.panels.Reload()
		}
		// The plugin rendered lines instead of taking the terminal; show
		// them in the built-in viewer.
		m.mode = modeViewer
		return m, m.viewer.Open(msg.plugin, msg.path)

	case editReadyMsg:
		if msg.err != nil {
			m.status = "edit: " + msg.err.Error()
			return m, nil
		}
		provider, remote, temp := msg.provider, msg.remote, msg.temp
		c := exec.Command(resolveEditor(), temp)
		return m, tea.ExecProcess(c, func(err error) tea.Msg {
			return editClosedMsg{provider: provider, remote: remote, temp: temp, err: err}
		})

	case editClosedMsg:
		return m, uploadEditedCmd(msg)

	case viewerview.RenderedMsg:
		var cmd tea.Cmd
		m.viewer, cmd = m.viewer.Update(msg)
		return m, cmd

	case viewerview.ClosedMsg:
		m.mode = modeNormal
		return m, nil

	case viewerview.LaunchedMsg:
		m.mode = modeNormal
		m.status = msg.Plugin + " launched its own window"
		return m, nil

	case overlayOpenedMsg:
		if msg.err != nil {
			m.mode = modeNormal
			m.status = "overlay: " + msg.err.Error()
			return m, nil
		}
		m.mode = modeOverlay
		m.overlay = overlayview.New(msg.session)
		return m, nil

	case overlayview.FrameMsg:
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd

	case overlayview.ClosedMsg:
		m.mode = modeNormal
		return m, nil

	case shellReturnedMsg:
		m.log.Absorb(msg.kept)
		if msg.err != nil {
			m.status = "shell: " + msg.err.Error()
		} else {
			m.status = "back from shell"
		}
		return m, m.panels.Reload()

	case deleteItemMsg:
		return m.handleDeleteItem(msg)

	case opDoneMsg:
		if msg.err != nil {
			m.status = msg.label + ": " + msg.err.Error()
			return m, nil
		}
		m.status = msg.label
		return m, m.panels.Reload()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Non-key traffic for the dialog sub-models.
	switch m.mode {
	case modeConnect:
		var cmd tea.Cmd
		m.connect, cmd = m.connect.Update(msg)
		return m, cmd
	case modeCmdline:
		var cmd tea.Cmd
		m.cmdline, cmd = m.cmdline.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.cmdline.SetWidth(min(m.width-4, 100))
	m.connect.SetWidth(min(m.width-4, 80))

	panelH, logH := m.split()
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.panels, cmd = m.panels.Update(tea.WindowSizeMsg{Width: m.width, Height: panelH})
	cmds = append(cmds, cmd)
	m.log, cmd = m.log.Update(tea.WindowSizeMsg{Width: m.width, Height: logH})
	cmds = append(cmds, cmd)
	m.viewer, cmd = m.viewer.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height - 1})
	cmds = append(cmds, cmd)
	m.bar.Width = min(m.width-10, 60)
	// Keep the hidden shell's idea of the terminal in sync.
	_ = m.shell.Resize(msg.Width, msg.Height)
	return m, tea.Batch(cmds...)
}

// split divides the content area between the panels and the shell log.
func (m Model) split() (panelH, logH int) {
	content := m.height - 1 // status bar
	logH = content / 3
	if logH < 3 {
		logH = 3
	}
	panelH = content - logH
	if panelH < 5 {
		panelH = 5
	}
	return panelH, logH
}

// ─── pump ────────────────────────────────────────────────────────────────────

func (m Model) handlePump() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{pumpCmd()}

	if batch := m.shell.Drain(); len(batch) > 0 {
		m.log.Absorb(batch)
		for _, message := range batch {
			if _, exited := message.(shelldomain.ShellExited); exited {
				m.status = "shell exited"
			}
		}
	}

	if m.task != nil {
		if prog, ok := m.task.TryProgress(); ok {
			m.lastProg = prog
		}
		if res, ok := m.task.TryResult(); ok {
			model, cmd := m.finishTask(res)
			return model, tea.Batch(append(cmds, cmd)...)
		}
	}

	if m.mode == modeOverlay {
		if tick := m.overlay.TickCmd(); tick != nil {
			cmds = append(cmds, tick)
		}
	}

	if time.Since(m.lastStatus) >= statusInterval {
		m.lastStatus = time.Now()
		cmds = append(cmds, m.renderStatusCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) renderStatusCmd() tea.Cmd {
	registry := m.registry
	provider := m.panels.ActiveProvider()
	sc := plugindto.StatusContext{
		Path:          m.panels.ActivePath(),
		SelectedCount: m.panels.SelectedCount(),
	}
	if e, ok := m.panels.CursorEntry(); ok {
		sc.SelectedFile = e.Path
		sc.IsDir = e.IsDir
		sc.FileSize = e.Size
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		out := statusRenderedMsg{lines: registry.RenderStatus(ctx, sc)}
		if fs, ok := provider.(providerin.FreeSpaceQuerier); ok {
			if free, err := fs.FreeSpace(ctx, sc.Path); err == nil {
				out.free, out.known = free, true
			}
		}
		return out
	}
}

// ─── background task results ─────────────────────────────────────────────────

func (m Model) finishTask(res taskdto.Result) (tea.Model, tea.Cmd) {
	m.task = nil
	switch res := res.(type) {
	case taskdto.PluginConnected:
		old, cmd := m.panels.SetProvider(res.Provider)
		m.disconnectIfUnused(old)
		m.mode = modeNormal
		if res.ExtensionMode {
			m.status = "opened " + filepath.Base(res.Source)
		} else {
			m.status = "connected: " + res.Provider.DisplayName()
			m.history.Remember(context.Background(), m.pending.desc.Name, m.pending.cfg)
		}
		return m, cmd

	case taskdto.PluginFailed:
		if res.PasswordRequired {
			m.mode = modePassword
			m.password.SetValue("")
			return m, m.password.Focus()
		}
		// Config and auth rejections go back to the dialog with the
		// plugin's message; the filled form is still there.
		if !res.ExtensionMode && (res.Kind == providerdomain.KindConfig || res.Kind == providerdomain.KindAuth) {
			m.mode = modeConnect
			m.connect.SetFieldError(res.Message)
			if res.Kind == providerdomain.KindAuth {
				m.connect.FocusPassword()
			}
			return m, nil
		}
		m.mode = modeNormal
		m.status = "connect failed: " + res.Message
		return m, nil

	case taskdto.RemoteConnected:
		old, cmd := m.panels.SetProvider(res.Provider)
		m.disconnectIfUnused(old)
		m.mode = modeNormal
		m.status = "connected: " + res.Provider.DisplayName()
		return m, cmd

	case taskdto.RemoteFailed:
		m.mode = modeNormal
		m.status = "remote connect failed: " + res.Message
		return m, nil

	case taskdto.FileOpCompleted:
		m.mode = modeNormal
		if len(res.Errors) > 0 {
			m.status = fmt.Sprintf("%s %d items, %d failed (%s)", res.OpName, res.Count, len(res.Errors), res.Errors[0])
		} else {
			m.status = fmt.Sprintf("%s %d items", res.OpName, res.Count)
		}
		return m, m.panels.Reload()
	}
	m.mode = modeNormal
	return m, nil
}

// DisconnectAll closes every plugin session the panes still hold. The
// shutdown path calls it after bubbletea has returned the terminal.
func (m Model) DisconnectAll() {
	providers := m.panels.Providers()
	for i, p := range providers {
		if p == nil || p == m.local {
			continue
		}
		if i > 0 && p == providers[0] {
			continue
		}
		if p.IsConnected() {
			_ = p.Disconnect()
		}
	}
}

// disconnectIfUnused closes a plugin session no pane shows anymore. The
// local provider has no session to close.
func (m Model) disconnectIfUnused(old providerin.PanelProvider) {
	if old == nil || old == m.local || old == m.panels.ActiveProvider() {
		return
	}
	go func() { _ = old.Disconnect() }()
}

// ─── connect flows ───────────────────────────────────────────────────────────

func (m Model) startConnect(desc plugindomain.Descriptor, cfg providerdomain.Config) (tea.Model, tea.Cmd) {
	m.pending = pendingConnect{desc: desc, cfg: cfg}
	m.mode = modeBackgroundTask
	m.taskLabel = "connecting to " + cfg.Name
	m.task = m.tasks.ConnectPlugin(desc, cfg)
	return m, nil
}

func (m Model) startExtensionConnect(desc plugindomain.Descriptor, localPath string) (tea.Model, tea.Cmd) {
	m.pending = pendingConnect{desc: desc, extension: true, localPath: localPath}
	m.mode = modeBackgroundTask
	m.taskLabel = "opening " + filepath.Base(localPath)
	m.task = m.tasks.ConnectExtensionPlugin(desc, localPath)
	return m, nil
}

func (m Model) retryWithPassword(password string) (tea.Model, tea.Cmd) {
	m.mode = modeBackgroundTask
	if m.pending.extension {
		m.taskLabel = "opening " + filepath.Base(m.pending.localPath)
		m.task = m.tasks.ConnectExtensionPluginWithPassword(m.pending.desc, m.pending.localPath, password)
	} else {
		m.taskLabel = "connecting to " + m.pending.cfg.Name
		cfg := m.pending.cfg.WithValue("password", password)
		m.pending.cfg = cfg
		m.task = m.tasks.ConnectPlugin(m.pending.desc, cfg)
	}
	return m, nil
}

// ─── keys ────────────────────────────────────────────────────────────────────

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeConnect:
		var cmd tea.Cmd
		m.connect, cmd = m.connect.Update(msg)
		return m, cmd

	case modePassword:
		switch msg.String() {
		case "esc":
			m.mode = modeNormal
			m.status = "connect canceled"
			return m, nil
		case "enter":
			pw := m.password.Value()
			m.password.Blur()
			return m.retryWithPassword(pw)
		}
		var cmd tea.Cmd
		m.password, cmd = m.password.Update(msg)
		return m, cmd

	case modeConfirm:
		switch msg.String() {
		case "y", "enter":
			m.mode = modeNormal
			return m.beginDelete()
		case "n", "esc":
			m.mode = modeNormal
			m.status = "canceled"
		}
		return m, nil

	case modePrompt:
		switch msg.String() {
		case "esc":
			m.mode = modeNormal
			return m, nil
		case "enter":
			value := strings.TrimSpace(m.prompt.Value())
			m.prompt.Blur()
			m.mode = modeNormal
			return m.applyPrompt(value)
		}
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd

	case modeErrorPrompt:
		return m.handleErrorPromptKey(msg)

	case modeBackgroundTask, modeFileOpProgress:
		if msg.String() == "esc" && m.task != nil {
			m.task.Cancel()
			m.status = "canceling…"
		}
		return m, nil

	case modeOverlayPick:
		switch msg.String() {
		case "esc", "q":
			m.mode = modeNormal
		case "up", "k":
			if m.overlayCur > 0 {
				m.overlayCur--
			}
		case "down", "j":
			if m.overlayCur < len(m.overlayOpt)-1 {
				m.overlayCur++
			}
		case "enter":
			desc := m.overlayOpt[m.overlayCur]
			return m, m.openOverlayCmd(desc)
		}
		return m, nil

	case modeOverlay:
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd

	case modeViewerPick:
		switch msg.String() {
		case "esc", "q":
			m.mode = modeNormal
		case "up", "k":
			if m.viewerCur > 0 {
				m.viewerCur--
			}
		case "down", "j":
			if m.viewerCur < len(m.viewerOpt)-1 {
				m.viewerCur++
			}
		case "enter":
			choice := m.viewerOpt[m.viewerCur]
			m.mode = modeNormal
			if desc, ok := m.registry.FindViewerByName(choice.Name); ok {
				return m.openViewer(desc, m.viewerPath)
			}
		}
		return m, nil

	case modeViewer:
		var cmd tea.Cmd
		m.viewer, cmd = m.viewer.Update(msg)
		return m, cmd

	case modeCmdline:
		var cmd tea.Cmd
		m.cmdline, cmd = m.cmdline.Update(msg)
		return m, cmd

	case modeHelp:
		if msg.String() == "esc" || msg.String() == "?" || msg.String() == "q" {
			m.mode = modeNormal
		}
		return m, nil
	}

	return m.handleNormalKey(msg)
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "?":
		m.mode = modeHelp
		return m, nil

	case ":":
		m.mode = modeCmdline
		return m, m.cmdline.Open(m.panels.ActivePath())

	case "ctrl+o":
		vs := &visibleShell{shell: m.shell, replay: m.log.RawLog()}
		return m, tea.Exec(vs, func(err error) tea.Msg {
			return shellReturnedMsg{kept: vs.kept, err: err}
		})

	case "C", "f2":
		m.mode = modeConnect
		return m, m.connect.Open()

	case "x":
		// Back to the local disk on the active pane.
		if m.panels.ActiveProvider() != m.local {
			old, cmd := m.panels.SetProvider(m.local)
			m.disconnectIfUnused(old)
			m.status = "back to local"
			return m, cmd
		}
		return m, nil

	case "c", "f5":
		return m.startFileOp(taskdomain.OpCopy)

	case "m", "f6":
		return m.startFileOp(taskdomain.OpMove)

	case "d", "f8", "delete":
		paths := m.panels.SelectedPaths()
		if len(paths) == 0 {
			return m, nil
		}
		m.deletion = deleteRun{paths: paths}
		m.confirmMsg = fmt.Sprintf("Delete %d item(s)? (y/n)", len(paths))
		m.mode = modeConfirm
		return m, nil

	case "n", "f7":
		m.promptKind = "mkdir"
		m.prompt.SetValue("")
		m.prompt.Placeholder = "new directory name"
		m.mode = modePrompt
		return m, m.prompt.Focus()

	case "r":
		if e, ok := m.panels.CursorEntry(); ok {
			m.promptKind = "rename"
			m.prompt.SetValue(e.Name)
			m.prompt.Placeholder = "new name"
			m.mode = modePrompt
			return m, m.prompt.Focus()
		}
		return m, nil

	case "v", "f3":
		if e, ok := m.panels.CursorEntry(); ok && !e.IsDir {
			return m, m.findViewerCmd(e.Path)
		}
		return m, nil

	case "V":
		if e, ok := m.panels.CursorEntry(); ok && !e.IsDir {
			return m, m.listViewersCmd(e.Path)
		}
		return m, nil

	case "e", "f4":
		if e, ok := m.panels.CursorEntry(); ok && !e.IsDir {
			return m.startEdit(e.Path)
		}
		return m, nil

	case "o":
		m.overlayOpt = m.registry.Overlays()
		if len(m.overlayOpt) == 0 {
			m.status = "no overlay plugins installed"
			return m, nil
		}
		m.overlayCur = 0
		m.mode = modeOverlayPick
		return m, nil

	case "ctrl+r":
		return m, m.panels.ReloadActive()

	case "enter":
		// Files whose extension a provider plugin claims open as browsable
		// trees (archives); everything else is the panels' business.
		if e, ok := m.panels.CursorEntry(); ok && !e.IsDir && m.panels.ActiveProvider() == m.local {
			if desc, found := m.registry.FindProviderByExtension(e.Path); found {
				return m.startExtensionConnect(desc, e.Path)
			}
		}
	}

	var cmd tea.Cmd
	m.panels, cmd = m.panels.Update(msg)
	return m, cmd
}

// ─── file operations ─────────────────────────────────────────────────────────

func (m Model) startFileOp(op taskdomain.Operation) (tea.Model, tea.Cmd) {
	if m.panels.ActiveProvider() != m.local || m.panels.InactiveProvider() != m.local {
		m.status = "copy/move needs both panes on the local disk"
		return m, nil
	}
	sources := m.panels.SelectedPaths()
	if len(sources) == 0 {
		return m, nil
	}
	dest := m.panels.InactivePath()
	m.mode = modeFileOpProgress
	m.lastProg = taskdomain.Progress{FilesTotal: len(sources)}
	m.task = m.tasks.FileOperation(op, sources, dest)
	return m, nil
}

// ─── per-item delete flow ────────────────────────────────────────────────────

func (m Model) beginDelete() (tea.Model, tea.Cmd) {
	m.deletion.idx = 0
	m.deletion.errors = nil
	m.deletion.skipAll = false
	return m.deleteNext()
}

func (m Model) deleteNext() (tea.Model, tea.Cmd) {
	if m.deletion.idx >= len(m.deletion.paths) {
		done := len(m.deletion.paths) - len(m.deletion.errors)
		if len(m.deletion.errors) > 0 {
			m.status = fmt.Sprintf("Deleted %d items, %d skipped", done, len(m.deletion.errors))
		} else {
			m.status = fmt.Sprintf("Deleted %d items", done)
		}
		m.mode = modeNormal
		return m, m.panels.Reload()
	}
	path := m.deletion.paths[m.deletion.idx]
	provider := m.panels.ActiveProvider()
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		err := provider.Delete(ctx, path)
		if err != nil {
			// Non-empty directories need the recursive form.
			if rerr := provider.DeleteRecursive(ctx, path); rerr == nil {
				err = nil
			}
		}
		return deleteItemMsg{path: path, err: err}
	}
}

func (m Model) handleDeleteItem(msg deleteItemMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		m.deletion.idx++
		return m.deleteNext()
	}
	if m.deletion.skipAll {
		m.deletion.errors = append(m.deletion.errors, msg.path+": "+msg.err.Error())
		m.deletion.idx++
		return m.deleteNext()
	}
	m.deleteErr = fmt.Sprintf("%s: %s", filepath.Base(msg.path), msg.err.Error())
	m.mode = modeErrorPrompt
	return m, nil
}

func (m Model) handleErrorPromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.mode = modeNormal
		return m.deleteNext()
	case "s":
		m.deletion.errors = append(m.deletion.errors, m.deletion.paths[m.deletion.idx])
		m.deletion.idx++
		m.mode = modeNormal
		return m.deleteNext()
	case "a":
		m.deletion.skipAll = true
		m.deletion.errors = append(m.deletion.errors, m.deletion.paths[m.deletion.idx])
		m.deletion.idx++
		m.mode = modeNormal
		return m.deleteNext()
	case "esc", "q":
		m.status = fmt.Sprintf("delete aborted at %d/%d", m.deletion.idx, len(m.deletion.paths))
		m.mode = modeNormal
		return m, m.panels.Reload()
	}
	return m, nil
}

// ─── prompts ─────────────────────────────────────────────────────────────────

func (m Model) applyPrompt(value string) (tea.Model, tea.Cmd) {
	if value == "" {
		return m, nil
	}
	provider := m.panels.ActiveProvider()
	dir := m.panels.ActivePath()
	switch m.promptKind {
	case "mkdir":
		target := joinProviderPath(dir, value)
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return opDoneMsg{label: "mkdir " + value, err: provider.Mkdir(ctx, target)}
		}
	case "rename":
		e, ok := m.panels.CursorEntry()
		if !ok {
			return m, nil
		}
		target := joinProviderPath(dir, value)
		from := e.Path
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return opDoneMsg{label: "renamed to " + value, err: provider.Rename(ctx, from, target)}
		}
	}
	return m, nil
}

// opDoneMsg reports a one-shot provider operation (mkdir, rename).
type opDoneMsg struct {
	label string
	err   error
}

// ─── viewers ─────────────────────────────────────────────────────────────────

// openViewer routes to the built-in viewer shell, or hands over the
// terminal when the manifest set needs_terminal.
func (m Model) openViewer(desc plugindomain.Descriptor, path string) (tea.Model, tea.Cmd) {
	if desc.NeedsTerminal {
		tv := &terminalViewer{registry: m.registry, plugin: desc.Name, path: path, width: m.width, height: m.height}
		return m, tea.Exec(tv, func(err error) tea.Msg {
			return terminalViewerDoneMsg{plugin: desc.Name, path: path, launched: tv.launched, err: err}
		})
	}
	m.mode = modeViewer
	return m, m.viewer.Open(desc.Name, path)
}

// terminalViewer issues the render round-trip while bubbletea has released
// the tty, so a plugin that spawns a full-screen program paints freely.
type terminalViewer struct {
	registry registryPort
	plugin   string
	path     string
	width    int
	height   int
	launched bool
}

func (v *terminalViewer) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	render, err := v.registry.RenderViewer(ctx, v.plugin, v.path, v.width, v.height, 0)
	if err != nil {
		return err
	}
	v.launched = render.Launched
	return nil
}

func (v *terminalViewer) SetStdin(io.Reader)  {}
func (v *terminalViewer) SetStdout(io.Writer) {}
func (v *terminalViewer) SetStderr(io.Writer) {}

// ─── external editor ─────────────────────────────────────────────────────────

// startEdit opens the cursor file in the external editor. Remote files go
// through a temp download and are written back when the editor exits.
func (m Model) startEdit(path string) (tea.Model, tea.Cmd) {
	provider := m.panels.ActiveProvider()
	if provider == m.local {
		c := exec.Command(resolveEditor(), path)
		return m, tea.ExecProcess(c, func(err error) tea.Msg {
			return opDoneMsg{label: "edited " + filepath.Base(path), err: err}
		})
	}
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		data, err := provider.ReadFile(ctx, path)
		if err != nil {
			return editReadyMsg{remote: path, err: err}
		}
		temp := filepath.Join(os.TempDir(), fmt.Sprintf("bark_remote_%d%s", os.Getpid(), filepath.Ext(path)))
		if err := os.WriteFile(temp, data, 0o600); err != nil {
			return editReadyMsg{remote: path, err: err}
		}
		return editReadyMsg{provider: provider, remote: path, temp: temp}
	}
}

// uploadEditedCmd writes the edited temp file back to the remote source
// and removes it. The upload happens even when the editor exited badly;
// the user may still have saved.
func uploadEditedCmd(msg editClosedMsg) tea.Cmd {
	return func() tea.Msg {
		defer os.Remove(msg.temp)
		data, err := os.ReadFile(msg.temp)
		if err != nil {
			return opDoneMsg{label: "upload " + filepath.Base(msg.remote), err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := msg.provider.WriteFile(ctx, msg.remote, data); err != nil {
			return opDoneMsg{label: "upload " + filepath.Base(msg.remote), err: err}
		}
		if msg.err != nil {
			return opDoneMsg{label: "edit " + filepath.Base(msg.remote), err: msg.err}
		}
		return opDoneMsg{label: "uploaded " + filepath.Base(msg.remote)}
	}
}

// resolveEditor picks the external editor: $VISUAL, then $EDITOR, then
// Helix when installed, then the platform fallback.
func resolveEditor() string {
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	if v := os.Getenv("EDITOR"); v != "" {
		return v
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	if _, err := exec.LookPath("hx"); err == nil {
		return "hx"
	}
	return "vi"
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) listViewersCmd(path string) tea.Cmd {
	registry := m.registry
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return viewerListMsg{path: path, choices: registry.ListViewerPlugins(ctx, path)}
	}
}

func (m Model) findViewerCmd(path string) tea.Cmd {
	registry := m.registry
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		desc, ok := registry.FindViewer(ctx, path)
		return viewerFoundMsg{desc: desc, path: path, ok: ok}
	}
}

func (m Model) openOverlayCmd(desc plugindomain.Descriptor) tea.Cmd {
	open := m.overlays
	w, h := m.width-8, m.height-6
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session, err := open(ctx, desc, w, h)
		return overlayOpenedMsg{session: session, err: err}
	}
}

// ─── visible shell (tea.Exec bridge) ─────────────────────────────────────────

// visibleShell hands the terminal to the embedded shell while bubbletea is
// released, then brings the drained messages back.
type visibleShell struct {
	shell  shellin.Usecase
	replay []string
	stdout io.Writer
	kept   []shelldomain.Message
}

func (v *visibleShell) Run() error {
	out := v.stdout
	if out == nil {
		out = os.Stdout
	}
	kept, err := v.shell.RunVisible(out, v.replay)
	v.kept = kept
	return err
}

func (v *visibleShell) SetStdin(io.Reader)    {}
func (v *visibleShell) SetStdout(w io.Writer) { v.stdout = w }
func (v *visibleShell) SetStderr(io.Writer)   {}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "starting…"
	}
	panelH, _ := m.split()
	content := m.panels.View() + "\n" + m.log.View()

	switch m.mode {
	case modeConnect:
		content = m.centerDialog(m.connect.View(), panelH)
	case modePassword:
		body := theme.Title.Render("Password required") + "\n\n" +
			m.password.View() + "\n\n" +
			theme.Muted.Render("enter:retry  esc:cancel")
		content = m.centerDialog(theme.Dialog.Render(body), panelH)
	case modeConfirm:
		body := theme.Warn.Render(m.confirmMsg)
		content = m.centerDialog(theme.Dialog.Render(body), panelH)
	case modePrompt:
		body := theme.Title.Render(m.promptKind) + "\n\n" + m.prompt.View()
		content = m.centerDialog(theme.Dialog.Render(body), panelH)
	case modeErrorPrompt:
		body := theme.Bad.Render(m.deleteErr) + "\n\n" +
			theme.Muted.Render("r:retry  s:skip  a:skip all  esc:abort")
		content = m.centerDialog(theme.Dialog.Render(body), panelH)
	case modeBackgroundTask:
		body := m.spin.View() + " " + m.taskLabel + "\n\n" + theme.Muted.Render("esc:cancel")
		content = m.centerDialog(theme.Dialog.Render(body), panelH)
	case modeFileOpProgress:
		content = m.centerDialog(theme.Dialog.Render(m.renderProgress()), panelH)
	case modeOverlayPick:
		content = m.centerDialog(m.renderOverlayPick(), panelH)
	case modeViewerPick:
		content = m.centerDialog(m.renderViewerPick(), panelH)
	case modeOverlay:
		content = m.centerDialog(m.overlay.View(), panelH)
	case modeViewer:
		content = m.viewer.View()
	case modeCmdline:
		content = lipgloss.JoinVertical(lipgloss.Left,
			m.panels.View(),
			lipgloss.Place(m.width, m.split2(), lipgloss.Center, lipgloss.Center, m.cmdline.View()))
	case modeHelp:
		content = m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, m.renderStatusBar())
}

func (m Model) split2() int {
	_, logH := m.split()
	return logH
}

func (m Model) centerDialog(dialog string, panelH int) string {
	area := panelH + m.split2()
	return lipgloss.Place(m.width, area, lipgloss.Center, lipgloss.Center, dialog)
}

func (m Model) renderProgress() string {
	p := m.lastProg
	var pct float64
	if p.BytesTotal > 0 {
		pct = float64(p.BytesDone) / float64(p.BytesTotal)
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("File operation") + "\n\n")
	sb.WriteString(m.bar.ViewAs(pct) + "\n")
	sb.WriteString(fmt.Sprintf("%s / %s", humanBytes(p.BytesDone), humanBytes(p.BytesTotal)) + "\n")
	if p.CurrentFile != "" {
		sb.WriteString(theme.Muted.Render(filepath.Base(p.CurrentFile)) + "\n")
	}
	sb.WriteString(fmt.Sprintf("file %d of %d", min(p.FilesDone+1, p.FilesTotal), p.FilesTotal) + "\n\n")
	sb.WriteString(theme.Muted.Render("esc:cancel"))
	return sb.String()
}

func (m Model) renderOverlayPick() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Overlays") + "\n\n")
	for i, d := range m.overlayOpt {
		label := d.Name
		if d.Description != "" {
			label += "  " + theme.Muted.Render(d.Description)
		}
		if i == m.overlayCur {
			sb.WriteString(theme.Selected.Render("> "+label) + "\n")
		} else {
			sb.WriteString("  " + label + "\n")
		}
	}
	sb.WriteString("\n" + theme.Muted.Render("enter:open  esc:close"))
	return theme.Dialog.Render(sb.String())
}

func (m Model) renderViewerPick() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Open "+filepath.Base(m.viewerPath)+" with") + "\n\n")
	for i, c := range m.viewerOpt {
		label := fmt.Sprintf("%s  %s", c.Name, theme.Muted.Render(fmt.Sprintf("priority %d", c.Priority)))
		if i == m.viewerCur {
			sb.WriteString(theme.Selected.Render("> "+label) + "\n")
		} else {
			sb.WriteString("  " + label + "\n")
		}
	}
	sb.WriteString("\n" + theme.Muted.Render("enter:open  esc:close"))
	return theme.Dialog.Render(sb.String())
}

func (m Model) renderHelp() string {
	rows := []string{
		"tab          switch pane",
		"enter        enter directory / open archive",
		"backspace    parent directory",
		"space        mark entry",
		".            toggle hidden files",
		"c / f5       copy marked to other pane",
		"m / f6       move marked to other pane",
		"n / f7       new directory",
		"d / f8       delete marked",
		"r            rename",
		"v / f3       view file with a viewer plugin",
		"V            choose among capable viewers",
		"e / f4       edit in $VISUAL / $EDITOR",
		"ctrl+r       reload the active pane",
		"o            overlay plugins",
		"C / f2       connect dialog",
		"x            back to local disk",
		":            run a shell command (captured)",
		"ctrl+o       enter the interactive shell (ctrl+o returns)",
		"?            this help",
		"q            quit",
	}
	return theme.Dialog.Render(theme.Title.Render("Keys") + "\n\n" + strings.Join(rows, "\n"))
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.task != nil {
		left = m.spin.View() + " " + left
	}

	var rightParts []string
	for _, sl := range m.statusLines {
		rightParts = append(rightParts, sl.Text)
	}
	if m.freeKnown {
		rightParts = append(rightParts, humanBytes(int64(m.freeSpace))+" free")
	}
	if n := m.panels.SelectedCount(); n > 0 {
		rightParts = append(rightParts, fmt.Sprintf("%d marked", n))
	}
	right := theme.Muted.Render(strings.Join(rightParts, "  │  "))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── small helpers ───────────────────────────────────────────────────────────

// registryBridge narrows the registry to what the connect dialog needs.
type registryBridge struct{ r registryPort }

func (b registryBridge) ListProviderPlugins() []plugindomain.Descriptor {
	return b.r.ListProviderPlugins()
}

// joinProviderPath joins with forward slashes, which both the local
// provider (on unix) and plugin providers understand.
func joinProviderPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
