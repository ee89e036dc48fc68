// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"ezm_trade_backend/internal/app"
	"ezm_trade_backend/internal/auth"
	"ezm_trade_backend/internal/config"
	"ezm_trade_backend/internal/inventory"
	"ezm_trade_backend/internal/jobs"
	"ezm_trade_backend/internal/notification"
	"ezm_trade_backend/internal/platform/forwarder"
	"ezm_trade_backend/internal/shared"
	"ezm_trade_backend/internal/user"

	"github.com/google/wire"
)

var platformSet = wire.NewSet(
	provideLogger,
	provideDatabase,
	auth.NewJWTService,
	forwarder.New,
	wire.Bind(new(notification.Forwarder), new(*forwarder.Forwarder)),
)

var domainSet = wire.NewSet(
	user.NewGORMRepository,
	user.NewStaffDirectory,
	wire.Bind(new(shared.StaffDirectory), new(*user.StaffDirectory)),
	user.NewService,
	wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
	wire.Bind(new(shared.Service), new(*user.ServiceImplementation)),

	inventory.NewGORMRepository,
	inventory.NewReader,
	wire.Bind(new(shared.InventoryReader), new(*inventory.Reader)),
	inventory.NewService,

	notification.NewGORMRepository,
	notification.NewService,
	notification.NewTriggers,
	wire.Bind(new(user.RegistrationNotifier), new(*notification.Triggers)),
	wire.Bind(new(inventory.Notifier), new(*notification.Triggers)),
	wire.Bind(new(notification.TriggerRunner), new(*notification.Triggers)),
	wire.Bind(new(jobs.TriggerRunner), new(*notification.Triggers)),

	provideExpirer,
	jobs.NewNotificationJobs,
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		platformSet,
		domainSet,
		user.NewHandler,
		inventory.NewHandler,
		notification.NewHandler,
		app.NewServer,
	)
	return nil, nil, nil
}

// initializeToolkit wires the one-shot CLI commands.
func initializeToolkit(cfg *config.Config) (*toolkit, func(), error) {
	wire.Build(
		platformSet,
		domainSet,
		newToolkit,
	)
	return nil, nil, nil
}
