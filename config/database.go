package config

import (
	"context"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/mood-map/api-go/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB opens the Postgres connection, retrying while the database comes up, and migrates the schema.
func InitDB(ctx context.Context, cfg *Config, logger *zap.Logger) (*gorm.DB, error) {
	var db *gorm.DB

	err := retry.Do(
		func() error {
			conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
				Logger: gormlogger.Default.LogMode(gormlogger.Warn),
			})
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			sqlDB, err := conn.DB()
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("get sql.DB: %w", err))
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			db = conn
			return nil
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			logger.Warn("Retrying database connection", zap.Uint("attempt", n), zap.Error(retryErr))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database after retries: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("Database ready", zap.String("host", cfg.DBHost), zap.String("name", cfg.DBName))
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Identity{},
		&models.Post{},
		&models.Report{},
		&models.DailyCount{},
		&models.ActivityLog{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
