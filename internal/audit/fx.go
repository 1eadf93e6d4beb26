package audit

import (
	"github.com/Cymoe/bill/internal/audit/repository"
	"github.com/Cymoe/bill/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
