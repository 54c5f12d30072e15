package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver for database/sql
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Connect creates a database connection based on configuration using sqlx
func Connect(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	var driverName string
	var dsn string

	if cfg.IsMemory() {
		driverName = "sqlite3"
		dsn = cfg.DSN()
	} else {
		driverName = "pgx"
		dsn = cfg.DSN()
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.IsMemory() {
		// Shared-cache SQLite reports table locks instead of waiting, so writers
		// are serialized through a single connection.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return db, nil
}

// Migrate applies all pending migrations from dir (e.g. "migrations").
// The dialect subdirectory is chosen from the configured database type.
func Migrate(db *sqlx.DB, cfg config.DBConfig, dir string) error {
	var m *migrate.Migrate
	var err error

	if cfg.IsMemory() {
		// Use driver instance directly to avoid DSN parsing issues with in-memory SQLite
		driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("could not create sqlite driver: %w", err)
		}
		m, err = migrate.NewWithDatabaseInstance("file://"+dir+"/sqlite", "sqlite3", driver)
		if err != nil {
			return fmt.Errorf("could not create migrate instance: %w", err)
		}
	} else {
		m, err = migrate.New("file://"+dir+"/postgres", cfg.DSN())
		if err != nil {
			return fmt.Errorf("could not create migrate instance: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
