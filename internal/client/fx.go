package client

import (
	"github.com/Cymoe/bill/internal/client/repository"
	"github.com/Cymoe/bill/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
