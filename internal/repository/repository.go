package repository

import (
	"context"

	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/jmoiron/sqlx"
)

const defaultListLimit = 50

// LocationRepository defines operations for resolved locations
type LocationRepository interface {
	// Upsert inserts loc unless a row with the same external id exists and
	// returns the stored row either way. Concurrent callers observe one row.
	Upsert(ctx context.Context, loc *model.ResolvedLocation) (*model.ResolvedLocation, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.ResolvedLocation, error)
	FindByID(ctx context.Context, id string) (*model.ResolvedLocation, error)
	List(ctx context.Context, limit int) ([]model.ResolvedLocation, error)
	// SetTimezone fills the timezone of a location that has none.
	SetTimezone(ctx context.Context, id, timezone string) error
}

// Container holds all repositories
type Container struct {
	Location LocationRepository
}

// NewRepositories creates repository implementations based on DB type
func NewRepositories(db *sqlx.DB, dbType config.DBType) *Container {
	if dbType == config.DBTypePostgreSQL {
		return &Container{
			Location: &pgLocationRepository{db: db},
		}
	}

	// Default to SQLite
	return &Container{
		Location: &sqliteLocationRepository{db: db},
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}
