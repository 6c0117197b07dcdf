// Package database opens the gorm connection and runs migrations.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cleardesk/cleardesk/pkg/models"
)

// NewPostgresDB opens a pooled PostgreSQL connection.
func NewPostgresDB(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}

// Migrate creates or updates the portal's tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.TradingRequest{},
		&models.RestrictedSecurity{},
		&models.ActivityLog{},
	)
}
