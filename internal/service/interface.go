package service

import (
	"context"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/alexivanou/weatherquery-api/internal/resolver"
)

// ServiceInterface defines the service interface for testing
type ServiceInterface interface {
	Lookup(ctx context.Context, req model.LookupRequest) (*model.LookupResult, error)
	ListLocations(ctx context.Context, limit int) ([]model.ResolvedLocation, error)
	GetLocation(ctx context.Context, id string) (*model.ResolvedLocation, error)
}

// IntentExtractor turns query text into an Intent.
type IntentExtractor interface {
	Extract(ctx context.Context, query string, ref time.Time) (*model.Intent, error)
}

// LocationResolver resolves an intent's location or asks for disambiguation.
type LocationResolver interface {
	Resolve(ctx context.Context, in resolver.Input) (*resolver.Result, error)
}

// WeatherProvider produces a normalized snapshot for a location.
type WeatherProvider interface {
	Snapshot(ctx context.Context, loc model.LocationInfo) (*model.WeatherSnapshot, error)
}
