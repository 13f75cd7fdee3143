package in

import (
	"context"

	plugindomain "bark/internal/modules/plugin/domain"
	"bark/internal/modules/provider/domain"
)

// PanelProvider is the one filesystem surface a panel browses, whatever
// actually backs it: the local disk, a provider plugin session, or a
// future remote transport. Choice happens at connection time.
type PanelProvider interface {
	ListDirectory(ctx context.Context, path string) ([]domain.FileEntry, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	DeleteRecursive(ctx context.Context, path string) error
	Rename(ctx context.Context, from, to string) error
	Mkdir(ctx context.Context, path string) error
	CopyFile(ctx context.Context, from, to string) error
	// SetAttributes is best-effort; providers may not support it.
	SetAttributes(ctx context.Context, path string, modified int64, permissions uint32) error
	HomePath() string
	DisplayName() string
	IsConnected() bool
	Disconnect() error
}

// FreeSpaceQuerier is an optional capability: providers that can report
// free bytes at a path implement it, the status bar probes with a type
// assertion.
type FreeSpaceQuerier interface {
	FreeSpace(ctx context.Context, path string) (uint64, error)
}

// Connector opens provider plugin sessions for panels.
type Connector interface {
	DialogFields(ctx context.Context, source string) ([]domain.DialogField, error)
	// ValidateConfig runs the plugin's own config check; a KindConfig
	// error reopens the dialog with the message.
	ValidateConfig(ctx context.Context, source string, cfg domain.Config) error
	Connect(ctx context.Context, desc plugindomain.Descriptor, cfg domain.Config) (PanelProvider, error)
	// ConnectExtension opens an extension-mode provider (archives and the
	// like) against a local file, fabricating the path config entry.
	ConnectExtension(ctx context.Context, desc plugindomain.Descriptor, localPath, password string) (PanelProvider, error)
}
