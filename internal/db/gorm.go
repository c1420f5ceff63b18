package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Legalistas/brixar-sub002/internal/config"
	"github.com/Legalistas/brixar-sub002/internal/models"
)

// ConnectDB opens the MySQL connection pool described by cfg.
func ConnectDB(cfg *config.Config) (*gorm.DB, error) {
	gormDB, err := gorm.Open(mysql.Open(cfg.DbDSN), &gorm.Config{
		Logger:         newGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access MySQL pool: %w", err)
	}
	if cfg.DbMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DbMaxOpenConns)
	}
	if cfg.DbMaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(cfg.DbMaxIdleConns)
	}
	if cfg.DbConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DbConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	config.GetLogger().Info("Successfully connected to MySQL")
	return gormDB, nil
}

// DisconnectDB closes the underlying connection pool.
func DisconnectDB(gormDB *gorm.DB) error {
	if gormDB == nil {
		return nil
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to access MySQL pool: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close MySQL pool: %w", err)
	}
	config.GetLogger().Info("MySQL connection closed")
	return nil
}

// Migrate creates or alters the tables for every persisted model.
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func newGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      logger.Error,
			SlowThreshold: time.Second,
		},
	)
}
