package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/config"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/migration"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/observability"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/server"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/pkg/db"
	"go.uber.org/fx"
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
