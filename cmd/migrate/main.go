package main

import (
	"errors"
	"flag"
	"log"

	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, or version")
		dir     = flag.String("dir", "migrations", "Directory holding the postgres and sqlite migration sets")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	var sourceURL, databaseURL string
	if cfg.DB.IsMemory() {
		// An in-memory database only lives as long as its process; this is
		// mostly useful for checking that the sqlite set applies cleanly.
		sourceURL = "file://" + *dir + "/sqlite"
		databaseURL = "sqlite3://" + cfg.DB.DSN()
	} else {
		sourceURL = "file://" + *dir + "/postgres"
		databaseURL = cfg.DB.DSN()
	}

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		logger.Fatal("Failed to create migration instance", zap.Error(err))
	}
	defer m.Close()

	switch *command {
	case "up":
		logger.Info("Running migrations UP")
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("Migration up failed", zap.Error(err))
		}
	case "down":
		logger.Info("Running migrations DOWN")
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("Migration down failed", zap.Error(err))
		}
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			logger.Fatal("Failed to get version", zap.Error(err))
		}
		logger.Info("Migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	default:
		logger.Fatal("Unknown command", zap.String("command", *command))
	}

	logger.Info("Migration command completed successfully")
}
