package usecase

import (
	shellin "bark/internal/modules/shell/port/in"
	"bark/internal/modules/shell/service"
)

func NewInteractor(svc *service.Shell) shellin.Usecase {
	return svc
}
