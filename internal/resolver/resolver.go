package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/alexivanou/weatherquery-api/internal/apperror"
	"github.com/alexivanou/weatherquery-api/internal/model"
	"go.uber.org/zap"
)

// CurrentLocationName is used when device coordinates cannot be reverse geocoded.
const CurrentLocationName = "Current Location"

// Geocoder is the subset of the geocoding provider the resolver needs.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]model.GeocodeCandidate, error)
	SearchCitiesInState(ctx context.Context, state string) ([]model.GeocodeCandidate, error)
	Reverse(ctx context.Context, lat, lon float64) (*model.GeocodeCandidate, error)
}

// Options tunes the resolver.
type Options struct {
	// StateImportanceThreshold is the minimum importance for a boundary
	// result to count as a state match.
	StateImportanceThreshold float64
	// MaxOptions caps the candidates offered for disambiguation.
	MaxOptions int
	// ResultLimit is the number of ranked candidates requested per search.
	ResultLimit int
}

// Input carries what the resolver needs from a lookup request.
type Input struct {
	Intent          model.Intent
	CurrentLocation *model.Coordinate
	SelectedIndex   *int
}

// Result is either a selected location or a set of options the caller must
// choose from.
type Result struct {
	Location  *model.ResolvedLocation
	Options   []model.LocationOption
	StateName string
}

// NeedsDisambiguation reports whether the caller must pick a location.
func (r Result) NeedsDisambiguation() bool {
	return r.Location == nil
}

// Resolver turns an intent's location into a place.
type Resolver struct {
	geo    Geocoder
	opts   Options
	logger *zap.Logger
}

// New creates a Resolver
func New(geo Geocoder, opts Options, logger *zap.Logger) *Resolver {
	if opts.MaxOptions <= 0 {
		opts.MaxOptions = 5
	}
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = 5
	}
	return &Resolver{geo: geo, opts: opts, logger: logger}
}

var nonWord = regexp.MustCompile(`[^a-z0-9 ]+`)

var currentLocationPhrases = map[string]struct{}{
	"here":                {},
	"right here":          {},
	"around here":         {},
	"near me":             {},
	"nearby":              {},
	"my location":         {},
	"my current location": {},
	"current location":    {},
	"my area":             {},
	"where i am":          {},
	"where im":            {},
	"where i am at":       {},
	"where im at":         {},
	"where i live":        {},
	"outside":             {},
}

// IsCurrentLocationPhrase reports whether s refers to the caller's own position.
func IsCurrentLocationPhrase(s string) bool {
	s = nonWord.ReplaceAllString(strings.ToLower(s), "")
	s = strings.Join(strings.Fields(s), " ")
	_, ok := currentLocationPhrases[s]
	return ok
}

// Resolve runs the resolution and disambiguation rules for one request.
func (r *Resolver) Resolve(ctx context.Context, in Input) (*Result, error) {
	location := strings.TrimSpace(in.Intent.LocationText())

	if !in.Intent.LocationProvided || IsCurrentLocationPhrase(location) {
		if in.CurrentLocation == nil {
			return nil, apperror.New(apperror.CurrentLocationRequired)
		}
		return &Result{Location: r.fromCoordinates(ctx, *in.CurrentLocation)}, nil
	}

	if location == "" {
		return nil, apperror.New(apperror.LocationRequired)
	}

	candidates, err := r.geo.Search(ctx, location, r.opts.ResultLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", location, err)
	}
	if len(candidates) == 0 {
		return nil, apperror.Newf(apperror.LocationNotFound, "no location found for %q", location)
	}

	decision := Classify(location, candidates, in.SelectedIndex != nil, r.opts.StateImportanceThreshold)
	r.logger.Debug("Classified location",
		zap.String("location", location),
		zap.Int("candidates", len(candidates)),
		zap.Stringer("decision", decision),
	)

	switch decision {
	case StateLevel:
		return r.resolveState(ctx, candidates[0].Address.State, in.SelectedIndex)
	case MultiMatch:
		return &Result{Options: r.options(candidates)}, nil
	}

	chosen, err := selectCandidate(candidates, in.SelectedIndex)
	if err != nil {
		return nil, err
	}
	return &Result{Location: toLocation(chosen)}, nil
}

// resolveState offers cities within the state, or selects one of them when
// the caller already chose.
func (r *Resolver) resolveState(ctx context.Context, state string, selected *int) (*Result, error) {
	cities, err := r.CitiesInState(ctx, state)
	if err != nil {
		return nil, err
	}
	if len(cities) == 0 {
		return nil, apperror.Newf(apperror.LocationTooBroad, "%s is a state, try a city name", state)
	}

	if selected == nil {
		return &Result{Options: r.options(cities), StateName: state}, nil
	}

	chosen, err := selectCandidate(cities, selected)
	if err != nil {
		return nil, err
	}
	return &Result{Location: toLocation(chosen)}, nil
}

// CitiesInState returns up to MaxOptions distinct cities whose address lies
// exactly in state.
func (r *Resolver) CitiesInState(ctx context.Context, state string) ([]model.GeocodeCandidate, error) {
	results, err := r.geo.SearchCitiesInState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to search cities in %s: %w", state, err)
	}

	var cities []model.GeocodeCandidate
	seen := make(map[string]struct{})
	for _, c := range results {
		if c.Address.State != state {
			continue
		}
		name := c.Address.Locality()
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		cities = append(cities, c)
		if len(cities) == r.opts.MaxOptions {
			break
		}
	}
	return cities, nil
}

func (r *Resolver) options(candidates []model.GeocodeCandidate) []model.LocationOption {
	n := len(candidates)
	if n > r.opts.MaxOptions {
		n = r.opts.MaxOptions
	}
	opts := make([]model.LocationOption, 0, n)
	for i, c := range candidates[:n] {
		opts = append(opts, model.LocationOption{
			Index:       i,
			Name:        placeName(c),
			Region:      c.Address.State,
			Country:     c.Address.Country,
			DisplayName: c.DisplayName,
			Lat:         c.Lat,
			Lon:         c.Lon,
		})
	}
	return opts
}

// fromCoordinates builds a location for device coordinates. Reverse
// geocoding only supplies the display name and failures are tolerated.
func (r *Resolver) fromCoordinates(ctx context.Context, coord model.Coordinate) *model.ResolvedLocation {
	loc := &model.ResolvedLocation{
		ExternalID: CoordinateID(coord.Lat, coord.Lon),
		Name:       CurrentLocationName,
		Lat:        coord.Lat,
		Lon:        coord.Lon,
	}

	place, err := r.geo.Reverse(ctx, coord.Lat, coord.Lon)
	if err != nil {
		r.logger.Warn("Reverse geocoding failed, using placeholder name",
			zap.Float64("lat", coord.Lat),
			zap.Float64("lon", coord.Lon),
			zap.Error(err),
		)
		return loc
	}

	if name := place.Address.PlaceName(); name != "" {
		loc.Name = name
	}
	loc.Region = place.Address.State
	loc.Country = place.Address.Country
	return loc
}

func selectCandidate(candidates []model.GeocodeCandidate, selected *int) (model.GeocodeCandidate, error) {
	index := 0
	if selected != nil {
		index = *selected
	}
	if index < 0 || index >= len(candidates) {
		return model.GeocodeCandidate{}, apperror.Newf(apperror.InvalidSelection,
			"selected location index %d is out of range (%d candidates)", index, len(candidates))
	}
	return candidates[index], nil
}

func toLocation(c model.GeocodeCandidate) *model.ResolvedLocation {
	externalID := CoordinateID(c.Lat, c.Lon)
	if c.PlaceID != 0 {
		externalID = fmt.Sprintf("%d", c.PlaceID)
	}
	return &model.ResolvedLocation{
		ExternalID: externalID,
		Name:       placeName(c),
		Region:     c.Address.State,
		Country:    c.Address.Country,
		Lat:        c.Lat,
		Lon:        c.Lon,
	}
}

func placeName(c model.GeocodeCandidate) string {
	if name := c.Address.PlaceName(); name != "" {
		return name
	}
	if c.Address.State != "" {
		return c.Address.State
	}
	name, _, _ := strings.Cut(c.DisplayName, ",")
	return strings.TrimSpace(name)
}

// CoordinateID is the external id used for places without a provider id.
func CoordinateID(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}
