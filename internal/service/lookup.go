package service

import (
	"context"
	"fmt"

	"github.com/alexivanou/weatherquery-api/internal/apperror"
	"github.com/alexivanou/weatherquery-api/internal/compose"
	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/alexivanou/weatherquery-api/internal/resolver"
	"go.uber.org/zap"
)

// Lookup answers a weather question. It either returns a final answer or a
// disambiguation prompt; the caller resumes a prompt by resubmitting the
// returned intent together with a selectedLocationIndex, which skips
// extraction.
func (s *Service) Lookup(ctx context.Context, req model.LookupRequest) (*model.LookupResult, error) {
	intent, err := s.intentFor(ctx, req)
	if err != nil {
		return nil, err
	}

	query, err := compose.FromIntent(*intent)
	if err != nil {
		return nil, apperror.Wrap(apperror.IntentExtractionFailed, err)
	}

	s.logger.Debug("Resolving location",
		zap.String("intent_type", string(intent.IntentType)),
		zap.String("location", intent.LocationText()),
	)
	res, err := s.resolver.Resolve(ctx, resolver.Input{
		Intent:          *intent,
		CurrentLocation: req.CurrentLocation,
		SelectedIndex:   req.SelectedLocationIndex,
	})
	if err != nil {
		return nil, err
	}

	if res.NeedsDisambiguation() {
		s.logger.Info("Disambiguation required",
			zap.String("query", req.Query),
			zap.Int("options", len(res.Options)),
			zap.String("state", res.StateName),
		)
		return &model.LookupResult{Disambiguation: &model.DisambiguationResponse{
			RequiresDisambiguation: true,
			OriginalQuery:          req.Query,
			Intent:                 *intent,
			Locations:              res.Options,
			StateName:              res.StateName,
		}}, nil
	}

	loc, err := s.persist(ctx, res.Location)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Fetching weather", zap.String("location_id", loc.ID))
	info := model.LocationInfo{
		Name:    loc.Name,
		Region:  loc.Region,
		Country: loc.Country,
		Lat:     loc.Lat,
		Lon:     loc.Lon,
	}
	if loc.Timezone != nil {
		info.Timezone = *loc.Timezone
	}
	snap, err := s.weather.Snapshot(ctx, info)
	if err != nil {
		return nil, err
	}

	if loc.Timezone == nil && snap.Location.Timezone != "" {
		if err := s.locations.SetTimezone(ctx, loc.ID, snap.Location.Timezone); err != nil {
			return nil, fmt.Errorf("failed to store timezone: %w", err)
		}
	}

	s.logger.Debug("Composing response", zap.String("intent_type", string(query.Type())))
	return &model.LookupResult{Answer: compose.Compose(query, snap, req.Units)}, nil
}

func (s *Service) intentFor(ctx context.Context, req model.LookupRequest) (*model.Intent, error) {
	if req.Intent != nil {
		s.logger.Debug("Using supplied intent", zap.String("intent_type", string(req.Intent.IntentType)))
		intent := *req.Intent
		return &intent, nil
	}
	return s.extractor.Extract(ctx, req.Query, s.now())
}

// persist returns the stored row for loc, creating it on first resolution.
func (s *Service) persist(ctx context.Context, loc *model.ResolvedLocation) (*model.ResolvedLocation, error) {
	existing, err := s.locations.FindByExternalID(ctx, loc.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	stored, err := s.locations.Upsert(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to save location: %w", err)
	}
	s.logger.Info("Stored new location",
		zap.String("id", stored.ID),
		zap.String("external_id", stored.ExternalID),
		zap.String("name", stored.Name),
	)
	return stored, nil
}
