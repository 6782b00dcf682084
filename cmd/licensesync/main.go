package main

import (
	"go.uber.org/fx"

	"license-sync/pkg/config"
	"license-sync/pkg/db"
	"license-sync/pkg/gen"
	"license-sync/pkg/health"
	"license-sync/pkg/logger"
	"license-sync/pkg/otelcol"
	"license-sync/pkg/redis"
	"license-sync/pkg/server"
	"license-sync/services/billing"
	"license-sync/services/license"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		otelcol.Module,
		db.Module,
		redis.Module,
		gen.Module,
		server.Module,
		health.Module,
		license.ServerModule,
		billing.ServerModule,
	)

	app.Run()
}
