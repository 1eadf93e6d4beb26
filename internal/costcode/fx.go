package costcode

import (
	"github.com/Cymoe/bill/internal/costcode/service"
	"go.uber.org/fx"
)

var Module = fx.Module("costcode.service",
	fx.Provide(service.New),
)
