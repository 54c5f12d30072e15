package app

import (
	"context"
	"fmt"

	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/alexivanou/weatherquery-api/internal/database"
	"github.com/alexivanou/weatherquery-api/internal/forecast"
	"github.com/alexivanou/weatherquery-api/internal/geocode"
	"github.com/alexivanou/weatherquery-api/internal/httpclient"
	"github.com/alexivanou/weatherquery-api/internal/intent"
	"github.com/alexivanou/weatherquery-api/internal/repository"
	"github.com/alexivanou/weatherquery-api/internal/resolver"
	"github.com/alexivanou/weatherquery-api/internal/service"
	"github.com/alexivanou/weatherquery-api/internal/stats"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Stack is the fully wired lookup pipeline shared by the server and the CLI.
type Stack struct {
	DB      *sqlx.DB
	HTTP    *httpclient.Client
	Repos   *repository.Container
	Service *service.Service
	Stats   *stats.Collector
}

// Build connects to the database, applies migrations from migrationsDir and
// wires every upstream client into a Service.
func Build(ctx context.Context, cfg *config.Config, migrationsDir string, logger *zap.Logger) (*Stack, error) {
	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	if err := database.Migrate(db, cfg.DB, migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	hc := httpclient.New(cfg.HTTP, logger)
	geo := geocode.NewClient(hc, cfg.Geocoder, logger)
	weather := forecast.NewClient(hc, cfg.Forecast, logger)
	extractor := intent.NewExtractor(hc, cfg.Intent, logger)
	res := resolver.New(geo, resolver.Options{
		StateImportanceThreshold: cfg.Disambiguation.StateImportanceThreshold,
		MaxOptions:               cfg.Disambiguation.MaxOptions,
		ResultLimit:              cfg.Geocoder.ResultLimit,
	}, logger)

	repos := repository.NewRepositories(db, cfg.DB.Type)

	return &Stack{
		DB:      db,
		HTTP:    hc,
		Repos:   repos,
		Service: service.NewService(extractor, res, weather, repos.Location, logger),
		Stats:   stats.NewCollector(db, cfg.DB, hc),
	}, nil
}

// Close releases the database connection.
func (s *Stack) Close() error {
	return s.DB.Close()
}
