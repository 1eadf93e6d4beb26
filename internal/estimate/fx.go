package estimate

import (
	"go.uber.org/fx"

	"github.com/Cymoe/bill/internal/estimate/service"
)

var Module = fx.Module("estimate.service",
	fx.Provide(service.New),
)
