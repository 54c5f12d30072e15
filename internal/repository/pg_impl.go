package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// --- PostgreSQL Implementation ---

const locationColumns = `id, external_id, name, region, country, lat, lon, timezone, created_at`

type pgLocationRepository struct {
	db *sqlx.DB
}

func (r *pgLocationRepository) Upsert(ctx context.Context, loc *model.ResolvedLocation) (*model.ResolvedLocation, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	q := `
		INSERT INTO resolved_locations (id, external_id, name, region, country, lat, lon, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		RETURNING ` + locationColumns

	var stored model.ResolvedLocation
	err := r.db.GetContext(ctx, &stored, q,
		uuid.NewString(), loc.ExternalID, loc.Name, loc.Region, loc.Country, loc.Lat, loc.Lon, loc.Timezone)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *pgLocationRepository) FindByExternalID(ctx context.Context, externalID string) (*model.ResolvedLocation, error) {
	var loc model.ResolvedLocation
	q := `SELECT ` + locationColumns + ` FROM resolved_locations WHERE external_id = $1`
	if err := r.db.GetContext(ctx, &loc, q, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &loc, nil
}

func (r *pgLocationRepository) FindByID(ctx context.Context, id string) (*model.ResolvedLocation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var loc model.ResolvedLocation
	q := `SELECT ` + locationColumns + ` FROM resolved_locations WHERE id = $1`
	if err := r.db.GetContext(ctx, &loc, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &loc, nil
}

func (r *pgLocationRepository) List(ctx context.Context, limit int) ([]model.ResolvedLocation, error) {
	q := `SELECT ` + locationColumns + ` FROM resolved_locations ORDER BY created_at DESC, id LIMIT $1`
	locations := []model.ResolvedLocation{}
	if err := r.db.SelectContext(ctx, &locations, q, normalizeLimit(limit)); err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *pgLocationRepository) SetTimezone(ctx context.Context, id, timezone string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE resolved_locations SET timezone = $1 WHERE id = $2 AND timezone IS NULL`,
		timezone, id)
	return err
}
