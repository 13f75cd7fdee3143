package in

import (
	"context"

	plugindomain "bark/internal/modules/plugin/domain"
	providerdomain "bark/internal/modules/provider/domain"
	providerin "bark/internal/modules/provider/port/in"
	"bark/internal/modules/task/domain"
	"bark/internal/modules/task/dto"
)

// Handle is the UI's grip on a running background task.
type Handle interface {
	Cancel()
	TryResult() (dto.Result, bool)
	TryProgress() (domain.Progress, bool)
}

// Runner spawns background work and hands back pollable handles.
type Runner interface {
	ConnectPlugin(desc plugindomain.Descriptor, cfg providerdomain.Config) Handle
	ConnectExtensionPlugin(desc plugindomain.Descriptor, localPath string) Handle
	ConnectExtensionPluginWithPassword(desc plugindomain.Descriptor, localPath, password string) Handle
	ConnectRemote(dial func(ctx context.Context) (providerin.PanelProvider, error), hadPassword bool) Handle
	FileOperation(op domain.Operation, sources []string, dest string) Handle
}
