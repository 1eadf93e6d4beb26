package main

import (
	"github.com/Cymoe/bill/internal/config"
	"github.com/Cymoe/bill/internal/logger"
	"github.com/Cymoe/bill/internal/migration"
	"github.com/Cymoe/bill/internal/server"
	"github.com/Cymoe/bill/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
