package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type sqliteLocationRepository struct {
	db *sqlx.DB
}

func (r *sqliteLocationRepository) Upsert(ctx context.Context, loc *model.ResolvedLocation) (*model.ResolvedLocation, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resolved_locations (id, external_id, name, region, country, lat, lon, timezone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO NOTHING`,
		uuid.NewString(), loc.ExternalID, loc.Name, loc.Region, loc.Country, loc.Lat, loc.Lon, loc.Timezone)
	if err != nil {
		return nil, err
	}

	stored, err := r.FindByExternalID(ctx, loc.ExternalID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.New("location vanished after upsert")
	}
	return stored, nil
}

func (r *sqliteLocationRepository) FindByExternalID(ctx context.Context, externalID string) (*model.ResolvedLocation, error) {
	var loc model.ResolvedLocation
	q := `SELECT ` + locationColumns + ` FROM resolved_locations WHERE external_id = ?`
	if err := r.db.GetContext(ctx, &loc, q, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &loc, nil
}

func (r *sqliteLocationRepository) FindByID(ctx context.Context, id string) (*model.ResolvedLocation, error) {
	var loc model.ResolvedLocation
	q := `SELECT ` + locationColumns + ` FROM resolved_locations WHERE id = ?`
	if err := r.db.GetContext(ctx, &loc, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &loc, nil
}

func (r *sqliteLocationRepository) List(ctx context.Context, limit int) ([]model.ResolvedLocation, error) {
	q := `SELECT ` + locationColumns + ` FROM resolved_locations ORDER BY created_at DESC, id LIMIT ?`
	locations := []model.ResolvedLocation{}
	if err := r.db.SelectContext(ctx, &locations, q, normalizeLimit(limit)); err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *sqliteLocationRepository) SetTimezone(ctx context.Context, id, timezone string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE resolved_locations SET timezone = ? WHERE id = ? AND timezone IS NULL`,
		timezone, id)
	return err
}
