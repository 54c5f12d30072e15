package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/alexivanou/weatherquery-api/internal/repository"
	"go.uber.org/zap"
)

// Service provides business logic for the API
type Service struct {
	extractor IntentExtractor
	resolver  LocationResolver
	weather   WeatherProvider
	locations repository.LocationRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new service instance
func NewService(
	extractor IntentExtractor,
	resolver LocationResolver,
	weather WeatherProvider,
	locations repository.LocationRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		extractor: extractor,
		resolver:  resolver,
		weather:   weather,
		locations: locations,
		logger:    logger,
		now:       time.Now,
	}
}

// ListLocations returns the most recently resolved locations
func (s *Service) ListLocations(ctx context.Context, limit int) ([]model.ResolvedLocation, error) {
	locations, err := s.locations.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// GetLocation returns a stored location or nil when it does not exist
func (s *Service) GetLocation(ctx context.Context, id string) (*model.ResolvedLocation, error) {
	loc, err := s.locations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}
