package out

import (
	"context"

	"bark/internal/modules/history/domain"
)

// Store persists remembered connections.
type Store interface {
	// Save upserts by plugin plus connection name, refreshing last_used.
	Save(ctx context.Context, conn domain.SavedConnection) error
	// List returns connections newest-first.
	List(ctx context.Context) ([]domain.SavedConnection, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
