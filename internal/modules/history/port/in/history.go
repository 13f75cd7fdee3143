package in

import (
	"context"

	"bark/internal/modules/history/domain"
	providerdomain "bark/internal/modules/provider/domain"
)

// Usecase is what the connect dialog sees of connection history.
type Usecase interface {
	Remember(ctx context.Context, plugin string, cfg providerdomain.Config)
	Recent(ctx context.Context) ([]domain.SavedConnection, error)
	Forget(ctx context.Context, id string) error
	Close() error
}
