package usecase

import (
	"context"

	plugindomain "bark/internal/modules/plugin/domain"
	providerdomain "bark/internal/modules/provider/domain"
	providerin "bark/internal/modules/provider/port/in"
	"bark/internal/modules/task/domain"
	taskin "bark/internal/modules/task/port/in"
	"bark/internal/modules/task/service"
)

// Interactor adapts the runner to the inbound port.
type Interactor struct {
	svc *service.Runner
}

func NewInteractor(svc *service.Runner) *Interactor {
	return &Interactor{svc: svc}
}

func (i *Interactor) ConnectPlugin(desc plugindomain.Descriptor, cfg providerdomain.Config) taskin.Handle {
	return i.svc.ConnectPlugin(desc, cfg)
}

func (i *Interactor) ConnectExtensionPlugin(desc plugindomain.Descriptor, localPath string) taskin.Handle {
	return i.svc.ConnectExtensionPlugin(desc, localPath)
}

func (i *Interactor) ConnectExtensionPluginWithPassword(desc plugindomain.Descriptor, localPath, password string) taskin.Handle {
	return i.svc.ConnectExtensionPluginWithPassword(desc, localPath, password)
}

func (i *Interactor) ConnectRemote(dial func(ctx context.Context) (providerin.PanelProvider, error), hadPassword bool) taskin.Handle {
	return i.svc.ConnectRemote(dial, hadPassword)
}

func (i *Interactor) FileOperation(op domain.Operation, sources []string, dest string) taskin.Handle {
	return i.svc.FileOperation(op, sources, dest)
}

var _ taskin.Runner = (*Interactor)(nil)
