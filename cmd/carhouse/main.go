package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/config"
	"github.com/smallbiznis/carhouse/internal/migration"
	"github.com/smallbiznis/carhouse/internal/observability"
	"github.com/smallbiznis/carhouse/internal/server"
	"github.com/smallbiznis/carhouse/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
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
