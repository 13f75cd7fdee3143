package service

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	plugindomain "bark/internal/modules/plugin/domain"
	"bark/internal/modules/provider/domain"
	providerin "bark/internal/modules/provider/port/in"
	providerout "bark/internal/modules/provider/port/out"
	apperrors "bark/internal/platform/errors"
	"bark/internal/platform/id"
	"bark/internal/platform/jsonline"
)

// ProviderService opens and tears down provider plugin sessions. Panels
// keep the returned PanelProvider by value and drop it on rebind.
type ProviderService struct {
	factory providerout.SessionFactory
	ids     id.Generator
	logger  *zap.Logger
}

func NewProviderService(factory providerout.SessionFactory, logger *zap.Logger) *ProviderService {
	return &ProviderService{factory: factory, ids: id.RandomHex{}, logger: logger}
}

// DialogFields asks a provider for its connection dialog layout. The child
// is short-lived; no session is created.
func (s *ProviderService) DialogFields(ctx context.Context, source string) ([]domain.DialogField, error) {
	session, err := s.factory.Start(ctx, source)
	if err != nil {
		return nil, domain.NewError(domain.KindTransport, "start %s: %v", source, err)
	}
	defer session.Close()

	resp, err := session.Command(ctx, map[string]any{"command": "get_dialog_fields"})
	if err != nil {
		return nil, sessionError(err)
	}
	if err := wireError(resp); err != nil {
		return nil, err
	}
	var fields []domain.DialogField
	for _, raw := range resp.Objects("fields") {
		f := domain.DialogField{
			ID:       raw.Str("id"),
			Label:    raw.Str("label"),
			Kind:     domain.ParseFieldKind(raw.Str("type")),
			Default:  raw.Str("default"),
			Required: raw.Bool("required"),
			Help:     raw.Str("help"),
			Options:  raw.Strings("options"),
		}
		if f.Label == "" {
			f.Label = f.ID
		}
		if err := f.Validate(); err != nil {
			return nil, domain.NewError(domain.KindProtocol, "dialog fields: %v", err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// ValidateConfig runs the plugin's own config check before any connect is
// attempted. A valid:false answer reopens the dialog with the message.
func (s *ProviderService) ValidateConfig(ctx context.Context, source string, cfg domain.Config) error {
	session, err := s.factory.Start(ctx, source)
	if err != nil {
		return domain.NewError(domain.KindTransport, "start %s: %v", source, err)
	}
	defer session.Close()

	resp, err := session.Command(ctx, map[string]any{
		"command": "validate_config",
		"config":  cfg.Wire(),
	})
	if err != nil {
		return sessionError(err)
	}
	if err := wireError(resp); err != nil {
		return err
	}
	if !resp.Bool("valid") {
		msg := resp.Str("error")
		if msg == "" {
			msg = "plugin rejected the configuration"
		}
		return domain.NewError(domain.KindConfig, "%s", msg)
	}
	return nil
}

// Connect spawns the plugin as a long-lived child and performs the connect
// handshake. On any failure the child is killed and no session survives.
func (s *ProviderService) Connect(ctx context.Context, desc plugindomain.Descriptor, cfg domain.Config) (providerin.PanelProvider, error) {
	session, err := s.factory.Start(ctx, desc.Source)
	if err != nil {
		return nil, domain.NewError(domain.KindConnection, "start %s: %v", desc.Source, err)
	}
	resp, err := session.Command(ctx, map[string]any{
		"command": "connect",
		"config":  cfg.Wire(),
	})
	if err != nil {
		session.Close()
		return nil, sessionError(err)
	}
	if err := wireError(resp); err != nil {
		session.Close()
		return nil, err
	}
	if !resp.Bool("success") {
		session.Close()
		return nil, domain.NewError(domain.KindConnection, "plugin refused the connection")
	}

	label := resp.Str("short_label")
	if label == "" {
		label = cfg.Name
	}
	if label == "" {
		label = desc.Name
	}
	home := resp.Str("home_path")
	if home == "" {
		home = "/"
	}
	sessionID := resp.Str("session_id")
	if sessionID == "" {
		sessionID = s.ids.New()
	}
	s.logger.Info("provider session open",
		zap.String("plugin", desc.Name),
		zap.String("label", label))
	return &PluginProvider{
		session:   session,
		sessionID: sessionID,
		label:     label,
		home:      home,
		connected: true,
		logger:    s.logger,
	}, nil
}

// ConnectExtension opens an archive-style provider against a local file.
// The config is fabricated: path points at the file, the label is its name
// and browsing starts at the virtual root.
func (s *ProviderService) ConnectExtension(ctx context.Context, desc plugindomain.Descriptor, localPath, password string) (providerin.PanelProvider, error) {
	cfg := domain.Config{
		Name:   filepath.Base(localPath),
		Values: map[string]string{"path": localPath},
	}
	if password != "" {
		cfg = cfg.WithValue("password", password)
	}
	provider, err := s.Connect(ctx, desc, cfg)
	if err != nil {
		return nil, err
	}
	if pp, ok := provider.(*PluginProvider); ok {
		pp.label = filepath.Base(localPath)
		pp.home = "/"
	}
	return provider, nil
}

// sessionError folds channel failures into the taxonomy.
func sessionError(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrTransportClosed), errors.Is(err, apperrors.ErrEmptyResponse):
		return domain.NewError(domain.KindTransport, "plugin closed the conversation")
	case errors.Is(err, apperrors.ErrInvalidInput):
		return domain.NewError(domain.KindProtocol, "plugin sent a malformed line")
	default:
		return domain.NewError(domain.KindTransport, "%v", err)
	}
}

// wireError lifts a top-level error field into a classified error.
func wireError(resp jsonline.Object) error {
	if msg := resp.Str("error"); msg != "" {
		return domain.Classify(resp.Str("error_type"), msg)
	}
	return nil
}
