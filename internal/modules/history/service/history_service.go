// Package service keeps the connection history the connect dialog offers
// for one-keystroke reconnects.
package service

import (
	"context"

	"go.uber.org/zap"

	"bark/internal/modules/history/domain"
	historyout "bark/internal/modules/history/port/out"
	providerdomain "bark/internal/modules/provider/domain"
	"bark/internal/platform/clock"
)

type History struct {
	store  historyout.Store
	clock  clock.Clock
	logger *zap.Logger
}

func NewHistory(store historyout.Store, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{store: store, clock: clock.SystemClock{}, logger: logger}
}

// Remember records a successful connection. Failures are logged and
// swallowed; history is a convenience, never a reason to fail a connect.
func (h *History) Remember(ctx context.Context, plugin string, cfg providerdomain.Config) {
	err := h.store.Save(ctx, domain.SavedConnection{
		Plugin:   plugin,
		Config:   cfg,
		LastUsed: h.clock.Now(),
	})
	if err != nil {
		h.logger.Warn("could not save connection history", zap.String("plugin", plugin), zap.Error(err))
	}
}

func (h *History) Recent(ctx context.Context) ([]domain.SavedConnection, error) {
	return h.store.List(ctx)
}

func (h *History) Forget(ctx context.Context, id string) error {
	return h.store.Delete(ctx, id)
}

func (h *History) Close() error {
	return h.store.Close()
}
