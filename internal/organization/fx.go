package organization

import (
	"github.com/Cymoe/bill/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(service.NewService),
)
