package publicshare

import (
	"github.com/Cymoe/bill/internal/publicshare/service"
	"go.uber.org/fx"
)

var Module = fx.Module("publicshare.service",
	fx.Provide(service.New),
)
