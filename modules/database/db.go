// Package database owns the shared GORM + SQLite connection used by the
// catalog, billing, sales and auth modules.
package database

import (
	"fmt"

	"github.com/example/pos-billing/domain/invoice"
	"github.com/example/pos-billing/domain/product"
	"github.com/example/pos-billing/domain/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the SQLite database at path.
// SQLite allows a single writer, so the pool is capped at one connection;
// transactions therefore never interleave.
func Open(path string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&product.Product{},
		&invoice.Invoice{},
		&invoice.LineItem{},
		&invoice.Sequence{},
		&user.User{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// OpenMemory opens a migrated in-memory database, mainly for tests.
func OpenMemory() (*gorm.DB, error) {
	db, err := Open(":memory:", false)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
