package usecase

import (
	historyin "bark/internal/modules/history/port/in"
	"bark/internal/modules/history/service"
)

func NewInteractor(svc *service.History) historyin.Usecase {
	return svc
}
