package in

import (
	"context"

	"bark/internal/modules/plugin/dto"
)

// Usecase is the read surface the CLI exposes over the loaded registry.
type Usecase interface {
	List(ctx context.Context) ([]dto.PluginInfo, error)
	Diagnostics(ctx context.Context) ([]string, error)
}
