package out

import (
	"context"

	"bark/internal/modules/plugin/domain"
	"bark/internal/platform/jsonline"
)

// ManifestSource discovers plugin descriptors from a directory of candidate
// executables. Candidates that fail discovery come back as diagnostics, not
// errors; only the directory scan itself can fail.
type ManifestSource interface {
	Discover(ctx context.Context, dir string) ([]domain.Descriptor, []domain.Diagnostic, error)
}

// Querier runs one request/response exchange against a short-lived plugin
// child. Status and viewer plugins are stateless, so every query spawns a
// fresh process.
type Querier interface {
	Query(ctx context.Context, source string, request map[string]any) (jsonline.Object, error)
}
