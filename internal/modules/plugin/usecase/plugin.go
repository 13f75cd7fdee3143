package usecase

import (
	"context"

	"bark/internal/modules/plugin/dto"
	pluginin "bark/internal/modules/plugin/port/in"
	"bark/internal/modules/plugin/service"
)

type Interactor struct {
	reg *service.Registry
}

func NewInteractor(reg *service.Registry) pluginin.Usecase {
	return &Interactor{reg: reg}
}

func (i *Interactor) List(_ context.Context) ([]dto.PluginInfo, error) {
	return i.reg.List(), nil
}

func (i *Interactor) Diagnostics(_ context.Context) ([]string, error) {
	var out []string
	for _, d := range i.reg.Diagnostics() {
		out = append(out, d.String())
	}
	return out, nil
}
