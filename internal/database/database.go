// Package database connects to MySQL through gorm and hosts the MySQL-backed
// dashboard history.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dashgen-backend/config"
)

func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// NewDB opens the MySQL connection with retries and migrates the history
// table. The pool is closed when the application stops.
func NewDB(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	operation := func() error {
		var err error
		db, err = gorm.Open(mysql.Open(DSN(cfg.Database)), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: Error opening MySQL connection")
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Warn().Err(err).Msg("Attempt failed: MySQL ping")
			return err
		}
		return nil
	}

	connectBackoff := backoff.NewExponentialBackOff()
	connectBackoff.InitialInterval = 2 * time.Second
	connectBackoff.MaxInterval = 15 * time.Second
	connectBackoff.MaxElapsedTime = 90 * time.Second

	log.Info().Str("host", cfg.Database.Host).Msg("Attempting to connect to MySQL with retries...")
	if err := backoff.Retry(operation, connectBackoff); err != nil {
		log.Error().Err(err).Msg("Failed to connect to MySQL after multiple retries")
		return nil, err
	}
	if err := db.AutoMigrate(&dashboardRow{}); err != nil {
		log.Error().Err(err).Msg("Failed to migrate dashboards table")
		return nil, err
	}
	log.Info().Msg("MySQL connection established")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			log.Info().Msg("Closing MySQL connection pool...")
			return sqlDB.Close()
		},
	})
	return db, nil
}
