package usecase

import (
	"context"

	plugindomain "bark/internal/modules/plugin/domain"
	"bark/internal/modules/provider/domain"
	providerin "bark/internal/modules/provider/port/in"
	"bark/internal/modules/provider/service"
)

type Interactor struct {
	svc *service.ProviderService
}

func NewInteractor(svc *service.ProviderService) providerin.Connector {
	return &Interactor{svc: svc}
}

func (i *Interactor) DialogFields(ctx context.Context, source string) ([]domain.DialogField, error) {
	return i.svc.DialogFields(ctx, source)
}

func (i *Interactor) ValidateConfig(ctx context.Context, source string, cfg domain.Config) error {
	return i.svc.ValidateConfig(ctx, source, cfg)
}

func (i *Interactor) Connect(ctx context.Context, desc plugindomain.Descriptor, cfg domain.Config) (providerin.PanelProvider, error) {
	return i.svc.Connect(ctx, desc, cfg)
}

func (i *Interactor) ConnectExtension(ctx context.Context, desc plugindomain.Descriptor, localPath, password string) (providerin.PanelProvider, error) {
	return i.svc.ConnectExtension(ctx, desc, localPath, password)
}
