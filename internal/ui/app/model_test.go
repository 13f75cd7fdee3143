package app

import (
	"context"
	"errors"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	historydomain "bark/internal/modules/history/domain"
	plugindomain "bark/internal/modules/plugin/domain"
	plugindto "bark/internal/modules/plugin/dto"
	providerdomain "bark/internal/modules/provider/domain"
	providerin "bark/internal/modules/provider/port/in"
	shelldomain "bark/internal/modules/shell/domain"
	taskdomain "bark/internal/modules/task/domain"
	taskdto "bark/internal/modules/task/dto"
	taskin "bark/internal/modules/task/port/in"
	overlayview "bark/internal/ui/views/overlay"
)

// ─── port stubs ──────────────────────────────────────────────────────────────

type stubRegistry struct {
	viewers []plugindomain.Descriptor
	choices []plugindto.ViewerChoice
}

func (s stubRegistry) RenderStatus(context.Context, plugindto.StatusContext) []plugindto.StatusLine {
	return nil
}

func (s stubRegistry) FindViewer(_ context.Context, _ string) (plugindomain.Descriptor, bool) {
	if len(s.viewers) == 0 {
		return plugindomain.Descriptor{}, false
	}
	return s.viewers[0], true
}

func (s stubRegistry) FindViewerByName(name string) (plugindomain.Descriptor, bool) {
	for _, d := range s.viewers {
		if d.Name == name {
			return d, true
		}
	}
	return plugindomain.Descriptor{}, false
}

func (s stubRegistry) ListViewerPlugins(context.Context, string) []plugindto.ViewerChoice {
	return s.choices
}

func (s stubRegistry) RenderViewer(context.Context, string, string, int, int, int) (plugindto.ViewerRender, error) {
	return plugindto.ViewerRender{}, nil
}

func (s stubRegistry) FindProviderByExtension(string) (plugindomain.Descriptor, bool) {
	return plugindomain.Descriptor{}, false
}

func (s stubRegistry) ListProviderPlugins() []plugindomain.Descriptor { return nil }
func (s stubRegistry) Overlays() []plugindomain.Descriptor           { return nil }

type stubFields struct{}

func (stubFields) DialogFields(context.Context, string) ([]providerdomain.DialogField, error) {
	return nil, nil
}

type stubShell struct{}

func (stubShell) SendCommandInDir(string, string) error { return nil }
func (stubShell) RunCommand(string, string) error       { return nil }
func (stubShell) InjectHistory(string, string) error    { return nil }
func (stubShell) RunVisible(io.Writer, []string) ([]shelldomain.Message, error) {
	return nil, nil
}
func (stubShell) Drain() []shelldomain.Message { return nil }
func (stubShell) Resize(int, int) error        { return nil }
func (stubShell) Alive() bool                  { return true }
func (stubShell) Shutdown()                    {}

type stubHandle struct{}

func (stubHandle) Cancel()                                  {}
func (stubHandle) TryResult() (taskdto.Result, bool)        { return nil, false }
func (stubHandle) TryProgress() (taskdomain.Progress, bool) { return taskdomain.Progress{}, false }

type stubRunner struct{}

func (stubRunner) ConnectPlugin(plugindomain.Descriptor, providerdomain.Config) taskin.Handle {
	return stubHandle{}
}
func (stubRunner) ConnectExtensionPlugin(plugindomain.Descriptor, string) taskin.Handle {
	return stubHandle{}
}
func (stubRunner) ConnectExtensionPluginWithPassword(plugindomain.Descriptor, string, string) taskin.Handle {
	return stubHandle{}
}
func (stubRunner) ConnectRemote(func(ctx context.Context) (providerin.PanelProvider, error), bool) taskin.Handle {
	return stubHandle{}
}
func (stubRunner) FileOperation(taskdomain.Operation, []string, string) taskin.Handle {
	return stubHandle{}
}

type stubHistory struct{}

func (stubHistory) Remember(context.Context, string, providerdomain.Config) {}
func (stubHistory) Recent(context.Context) ([]historydomain.SavedConnection, error) {
	return nil, nil
}
func (stubHistory) Forget(context.Context, string) error { return nil }
func (stubHistory) Close() error                         { return nil }

type stubProvider struct {
	name        string
	connected   bool
	disconnects int
}

func (p *stubProvider) ListDirectory(context.Context, string) ([]providerdomain.FileEntry, error) {
	return nil, nil
}
func (p *stubProvider) ReadFile(context.Context, string) ([]byte, error)       { return nil, nil }
func (p *stubProvider) WriteFile(context.Context, string, []byte) error        { return nil }
func (p *stubProvider) Delete(context.Context, string) error                   { return nil }
func (p *stubProvider) DeleteRecursive(context.Context, string) error          { return nil }
func (p *stubProvider) Rename(context.Context, string, string) error           { return nil }
func (p *stubProvider) Mkdir(context.Context, string) error                    { return nil }
func (p *stubProvider) CopyFile(context.Context, string, string) error         { return nil }
func (p *stubProvider) SetAttributes(context.Context, string, int64, uint32) error {
	return nil
}
func (p *stubProvider) HomePath() string    { return "/" }
func (p *stubProvider) DisplayName() string { return p.name }
func (p *stubProvider) IsConnected() bool   { return p.connected }
func (p *stubProvider) Disconnect() error {
	p.disconnects++
	p.connected = false
	return nil
}

func newTestModel(registry stubRegistry, local providerin.PanelProvider) Model {
	opener := func(context.Context, plugindomain.Descriptor, int, int) (overlayview.Session, error) {
		return nil, errors.New("no overlays")
	}
	m := NewModel(registry, stubFields{}, stubShell{}, stubRunner{}, stubHistory{}, opener, local, "/start")
	m.width = 120
	m.height = 40
	return m
}

// ─── connect failure routing ─────────────────────────────────────────────────

func TestFinishTaskConfigRejectionReopensDialog(t *testing.T) {
	t.Parallel()

	m := newTestModel(stubRegistry{}, &stubProvider{name: "local"})
	m.mode = modeBackgroundTask

	res, _ := m.finishTask(taskdto.PluginFailed{
		Message: "port must be numeric",
		Kind:    providerdomain.KindConfig,
	})
	got := res.(Model)
	if got.mode != modeConnect {
		t.Fatalf("mode = %v, want the connect dialog back", got.mode)
	}
}

func TestFinishTaskAuthRejectionReopensDialog(t *testing.T) {
	t.Parallel()

	m := newTestModel(stubRegistry{}, &stubProvider{name: "local"})
	m.mode = modeBackgroundTask

	res, _ := m.finishTask(taskdto.PluginFailed{
		Message: "login refused",
		Kind:    providerdomain.KindAuth,
	})
	got := res.(Model)
	if got.mode != modeConnect {
		t.Fatalf("mode = %v, want the connect dialog back", got.mode)
	}
}

func TestFinishTaskConnectionFailureStaysInNormalMode(t *testing.T) {
	t.Parallel()

	m := newTestModel(stubRegistry{}, &stubProvider{name: "local"})
	m.mode = modeBackgroundTask

	res, _ := m.finishTask(taskdto.PluginFailed{
		Message: "host unreachable",
		Kind:    providerdomain.KindConnection,
	})
	got := res.(Model)
	if got.mode != modeNormal || got.status != "connect failed: host unreachable" {
		t.Fatalf("mode=%v status=%q", got.mode, got.status)
	}
}

func TestFinishTaskPasswordRequiredPrompts(t *testing.T) {
	t.Parallel()

	m := newTestModel(stubRegistry{}, &stubProvider{name: "local"})
	m.mode = modeBackgroundTask

	res, _ := m.finishTask(taskdto.PluginFailed{
		Message:          "archive is encrypted",
		Kind:             providerdomain.KindPasswordRequired,
		PasswordRequired: true,
	})
	got := res.(Model)
	if got.mode != modePassword {
		t.Fatalf("mode = %v, want the password prompt", got.mode)
	}
}

// ─── viewer selection ────────────────────────────────────────────────────────

func TestViewerChoiceMenu(t *testing.T) {
	t.Parallel()

	registry := stubRegistry{
		viewers: []plugindomain.Descriptor{
			{Name: "img", Kind: plugindomain.KindViewer, Extensions: []string{".png"}},
			{Name: "hex", Kind: plugindomain.KindViewer, Extensions: []string{"*"}},
		},
		choices: []plugindto.ViewerChoice{
			{Name: "img", Priority: 10},
			{Name: "hex", Priority: 1},
		},
	}
	m := newTestModel(registry, &stubProvider{name: "local"})

	res, _ := m.Update(viewerListMsg{path: "/x.png", choices: registry.choices})
	got := res.(Model)
	if got.mode != modeViewerPick {
		t.Fatalf("mode = %v, want the viewer picker", got.mode)
	}

	res, _ = got.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	got = res.(Model)
	if got.viewerCur != 1 {
		t.Fatalf("cursor = %d after down", got.viewerCur)
	}

	res, cmd := got.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got = res.(Model)
	if got.mode != modeViewer || cmd == nil {
		t.Fatalf("enter should open the chosen viewer, mode=%v", got.mode)
	}
}

func TestViewerChoiceMenuEmptyList(t *testing.T) {
	t.Parallel()

	m := newTestModel(stubRegistry{}, &stubProvider{name: "local"})
	res, _ := m.Update(viewerListMsg{path: "/x.bin"})
	got := res.(Model)
	if got.mode != modeNormal || got.status == "" {
		t.Fatalf("empty choice list: mode=%v status=%q", got.mode, got.status)
	}
}

func TestNeedsTerminalViewerReleasesTerminal(t *testing.T) {
	t.Parallel()

	registry := stubRegistry{viewers: []plugindomain.Descriptor{
		{Name: "hexed", Kind: plugindomain.KindViewer, Extensions: []string{"*"}, NeedsTerminal: true},
	}}
	m := newTestModel(registry, &stubProvider{name: "local"})

	res, cmd := m.Update(viewerFoundMsg{desc: registry.viewers[0], path: "/x.bin", ok: true})
	got := res.(Model)
	if got.mode == modeViewer {
		t.Fatal("needs_terminal viewer must not enter the built-in viewer shell")
	}
	if cmd == nil {
		t.Fatal("terminal handoff command missing")
	}
}

func TestBuiltinViewerOpensInline(t *testing.T) {
	t.Parallel()

	registry := stubRegistry{viewers: []plugindomain.Descriptor{
		{Name: "md", Kind: plugindomain.KindViewer, Extensions: []string{".md"}},
	}}
	m := newTestModel(registry, &stubProvider{name: "local"})

	res, cmd := m.Update(viewerFoundMsg{desc: registry.viewers[0], path: "/doc.md", ok: true})
	got := res.(Model)
	if got.mode != modeViewer || cmd == nil {
		t.Fatalf("inline viewer: mode=%v", got.mode)
	}
}

// ─── external editor ─────────────────────────────────────────────────────────

func TestResolveEditorEnvOrder(t *testing.T) {
	t.Setenv("VISUAL", "myvisual")
	t.Setenv("EDITOR", "myeditor")
	if got := resolveEditor(); got != "myvisual" {
		t.Fatalf("VISUAL not preferred: %q", got)
	}
	t.Setenv("VISUAL", "")
	if got := resolveEditor(); got != "myeditor" {
		t.Fatalf("EDITOR fallback: %q", got)
	}
}

func TestEditReadyFailureSurfacesStatus(t *testing.T) {
	t.Parallel()

	m := newTestModel(stubRegistry{}, &stubProvider{name: "local"})
	res, cmd := m.Update(editReadyMsg{remote: "/srv/x.conf", err: errors.New("no such file")})
	got := res.(Model)
	if cmd != nil || got.status != "edit: no such file" {
		t.Fatalf("status = %q", got.status)
	}
}

// ─── shutdown ────────────────────────────────────────────────────────────────

func TestDisconnectAllClosesPluginSessions(t *testing.T) {
	t.Parallel()

	local := &stubProvider{name: "local"}
	remote := &stubProvider{name: "sftp", connected: true}
	m := newTestModel(stubRegistry{}, local)
	m.panels.SetProvider(remote)

	m.DisconnectAll()
	if remote.disconnects != 1 {
		t.Fatalf("remote disconnects = %d, want 1", remote.disconnects)
	}
	if local.disconnects != 0 {
		t.Fatal("local provider must never be disconnected")
	}
}
