// Package bootstrap wires the modules together and runs the TUI.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"

	historyadapter "bark/internal/modules/history/adapter/out"
	historyservice "bark/internal/modules/history/service"
	historyusecase "bark/internal/modules/history/usecase"
	pluginadapter "bark/internal/modules/plugin/adapter/out"
	plugindomain "bark/internal/modules/plugin/domain"
	pluginin "bark/internal/modules/plugin/port/in"
	pluginservice "bark/internal/modules/plugin/service"
	pluginusecase "bark/internal/modules/plugin/usecase"
	provideradapter "bark/internal/modules/provider/adapter/out"
	providerservice "bark/internal/modules/provider/service"
	providerusecase "bark/internal/modules/provider/usecase"
	shelladapter "bark/internal/modules/shell/adapter/out"
	shellservice "bark/internal/modules/shell/service"
	shellusecase "bark/internal/modules/shell/usecase"
	taskadapter "bark/internal/modules/task/adapter/out"
	taskservice "bark/internal/modules/task/service"
	taskusecase "bark/internal/modules/task/usecase"
	"bark/internal/platform/config"
	"bark/internal/platform/lockfile"
	"bark/internal/platform/logging"
	"bark/internal/ui/app"
	overlayview "bark/internal/ui/views/overlay"
)

// App holds everything with a lifecycle so Run can tear it down in order.
type App struct {
	Cfg      config.Config
	Logger   *zap.Logger
	Lock     *lockfile.Guard
	Registry *pluginservice.Registry

	shell   *shellservice.Shell
	history *historyservice.History
	model   app.Model
}

// New builds the full dependency graph. The PTY shell is started here so a
// failure surfaces before the alternate screen swallows the error.
func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.LogPath, cfg.Debug)
	if err != nil {
		return nil, err
	}

	registry := pluginservice.NewRegistry(
		pluginadapter.NewExecDiscovery(logger),
		pluginadapter.NewExecQuerier(logger),
		logger,
	)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := registry.LoadFromDirectory(ctx, cfg.PluginDir); err != nil {
		logger.Warn("plugin discovery", zap.String("dir", cfg.PluginDir), zap.Error(err))
	}

	factory := provideradapter.NewStdioSessionFactory(logger)
	providerSvc := providerservice.NewProviderService(factory, logger)
	overlaySvc := providerservice.NewOverlayService(factory, logger)
	connector := providerusecase.NewInteractor(providerSvc)
	local := provideradapter.NewLocal()

	startPath, err := os.UserHomeDir()
	if err != nil {
		startPath = "/"
	}

	cols, rows := terminalSize()
	shellPath := shellservice.ResolveShell(cfg.Shell)
	host, err := shelladapter.StartPtyHost(shellPath, startPath, cols, rows, logger)
	if err != nil {
		return nil, fmt.Errorf("start shell: %w", err)
	}
	shellSvc := shellservice.NewShell(
		host,
		shelladapter.NewStdinForwarder(),
		shellPath,
		startPath,
		filepath.Join(cfg.ConfigDir, "capture"),
		logger,
	)

	runner := taskservice.NewRunner(connector, taskadapter.LocalFS{}, logger)

	store, err := historyadapter.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	historySvc := historyservice.NewHistory(store, logger)

	openOverlay := func(ctx context.Context, desc plugindomain.Descriptor, width, height int) (overlayview.Session, error) {
		session, err := overlaySvc.Open(ctx, desc, width, height)
		if err != nil {
			return nil, err
		}
		return session, nil
	}

	model := app.NewModel(
		registry,
		connector,
		shellusecase.NewInteractor(shellSvc),
		taskusecase.NewInteractor(runner),
		historyusecase.NewInteractor(historySvc),
		openOverlay,
		local,
		startPath,
	)

	return &App{
		Cfg:      cfg,
		Logger:   logger,
		Lock:     lockfile.New(cfg.ConfigDir),
		Registry: registry,
		shell:    shellSvc,
		history:  historySvc,
		model:    model,
	}, nil
}

// Run owns the lock for the program's lifetime and tears everything down
// once the TUI exits.
func (a *App) Run() error {
	if err := a.Lock.Acquire(); err != nil {
		return err
	}
	defer a.Lock.Release()
	defer a.shutdown()

	program := tea.NewProgram(a.model, tea.WithAltScreen())
	final, err := program.Run()
	if m, ok := final.(app.Model); ok {
		m.DisconnectAll()
	}
	return err
}

func (a *App) shutdown() {
	a.shell.Shutdown()
	if err := a.history.Close(); err != nil {
		a.Logger.Warn("close history", zap.Error(err))
	}
	_ = a.Logger.Sync()
}

// NewPluginCLI builds just the plugin registry surface for the inspection
// commands, without touching the PTY shell or the database.
func NewPluginCLI(cfg config.Config) (pluginin.Usecase, error) {
	logger, err := logging.New(cfg.LogPath, cfg.Debug)
	if err != nil {
		return nil, err
	}
	registry := pluginservice.NewRegistry(
		pluginadapter.NewExecDiscovery(logger),
		pluginadapter.NewExecQuerier(logger),
		logger,
	)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := registry.LoadFromDirectory(ctx, cfg.PluginDir); err != nil {
		return nil, err
	}
	return pluginusecase.NewInteractor(registry), nil
}

func terminalSize() (cols, rows int) {
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		return 80, 24
	}
	return cols, rows
}
