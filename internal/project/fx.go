package project

import (
	"github.com/Cymoe/bill/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(service.New),
)
