//go:build wireinject
// +build wireinject

package main

import (
	"salesdesk/config"
	"salesdesk/internal/command"
	"salesdesk/internal/cron"
	"salesdesk/internal/database"
	"salesdesk/internal/handler"
	"salesdesk/internal/middleware"
	"salesdesk/internal/router"
	"salesdesk/internal/service"
	"salesdesk/internal/telemetry"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// wireApp init application.
func wireApp(*config.Configuration, *zap.Logger) (*App, func(), error) {
	panic(
		wire.Build(
			database.ProviderSet,
			service.ProviderSet,
			handler.ProviderSet,
			middleware.ProviderSet,
			router.ProviderSet,
			cron.ProviderSet,
			newHttpServer,
			telemetry.ProviderSet,
			newApp,
		),
	)
}

// wireCommand init application.
func wireCommand(*config.Configuration, *zap.Logger) (*command.Command, func(), error) {
	panic(
		wire.Build(
			database.ProviderSet,
			service.ProviderSet,
			telemetry.ProviderSet,
			command.ProviderSet,
		),
	)
}
