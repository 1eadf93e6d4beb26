package vendors

import (
	"github.com/Cymoe/bill/internal/vendors/service"
	"go.uber.org/fx"
)

var Module = fx.Module("vendor.service",
	fx.Provide(service.New),
)
