package main

import (
	"log"

	"ezm_trade_backend/internal/config"
	"ezm_trade_backend/internal/inventory"
	"ezm_trade_backend/internal/jobs"
	"ezm_trade_backend/internal/notification"
	"ezm_trade_backend/internal/platform/database"
	"ezm_trade_backend/internal/platform/logger"
	"ezm_trade_backend/internal/shared"
	"ezm_trade_backend/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// toolkit carries what the one-shot CLI commands need.
type toolkit struct {
	jobs   *jobs.NotificationJobs
	users  shared.Service
	tokens shared.TokenService
	logger *zap.Logger
}

func newToolkit(j *jobs.NotificationJobs, users shared.Service, tokens shared.TokenService, logger *zap.Logger) *toolkit {
	return &toolkit{jobs: j, users: users, tokens: tokens, logger: logger}
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		if err := l.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}, nil
}

func allModels() []interface{} {
	models := []interface{}{&user.User{}}
	models = append(models, inventory.Models()...)
	return append(models, notification.Models()...)
}

func provideDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(db, allModels()...); err != nil {
			database.CloseGORMDB(db, l)
			return nil, nil, err
		}
		l.Info("Database schema migrated.")
	}
	return db, func() { database.CloseGORMDB(db, l) }, nil
}

func provideExpirer(s notification.Service) jobs.Expirer {
	return s
}
