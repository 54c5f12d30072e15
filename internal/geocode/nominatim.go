package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/alexivanou/weatherquery-api/internal/httpclient"
	"github.com/alexivanou/weatherquery-api/internal/model"
	"go.uber.org/zap"
)

const upstreamName = "geocoder"

// Client talks to a Nominatim-compatible search API.
type Client struct {
	http   *httpclient.Client
	cfg    config.GeocoderConfig
	logger *zap.Logger
}

// NewClient creates a geocoding client
func NewClient(hc *httpclient.Client, cfg config.GeocoderConfig, logger *zap.Logger) *Client {
	return &Client{http: hc, cfg: cfg, logger: logger}
}

// place mirrors the jsonv2 result shape; coordinates arrive as strings.
type place struct {
	PlaceID     int64         `json:"place_id"`
	DisplayName string        `json:"display_name"`
	Lat         string        `json:"lat"`
	Lon         string        `json:"lon"`
	Importance  float64       `json:"importance"`
	Type        string        `json:"type"`
	OSMType     string        `json:"osm_type"`
	AddressType string        `json:"addresstype"`
	Address     model.Address `json:"address"`
	Error       string        `json:"error,omitempty"`
}

func (p place) toCandidate() (model.GeocodeCandidate, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return model.GeocodeCandidate{}, fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return model.GeocodeCandidate{}, fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}
	return model.GeocodeCandidate{
		PlaceID:     p.PlaceID,
		DisplayName: p.DisplayName,
		Address:     p.Address,
		Lat:         lat,
		Lon:         lon,
		Importance:  p.Importance,
		Type:        p.Type,
		OSMType:     p.OSMType,
		AddressType: p.AddressType,
	}, nil
}

// Search performs a forward geocode restricted to the configured countries.
// Results keep the provider's ranking.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]model.GeocodeCandidate, error) {
	if limit <= 0 {
		limit = c.cfg.ResultLimit
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(limit))
	if len(c.cfg.CountryCodes) > 0 {
		params.Set("countrycodes", strings.Join(c.cfg.CountryCodes, ","))
	}
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}

	var places []place
	if err := c.http.GetJSON(ctx, upstreamName, c.cfg.BaseURL+"/search", params, &places); err != nil {
		return nil, fmt.Errorf("geocode search: %w", err)
	}

	candidates := make([]model.GeocodeCandidate, 0, len(places))
	for _, p := range places {
		cand, err := p.toCandidate()
		if err != nil {
			c.logger.Warn("Skipping geocode result", zap.Int64("place_id", p.PlaceID), zap.Error(err))
			continue
		}
		candidates = append(candidates, cand)
	}

	c.logger.Debug("Geocode search",
		zap.String("query", query),
		zap.Int("results", len(candidates)),
	)
	return candidates, nil
}

// SearchCitiesInState looks for populated places within a state.
func (c *Client) SearchCitiesInState(ctx context.Context, state string) ([]model.GeocodeCandidate, error) {
	return c.Search(ctx, "city in "+state, c.cfg.StateSearchLimit)
}

// Reverse resolves coordinates to the nearest addressable place.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*model.GeocodeCandidate, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}

	var p place
	if err := c.http.GetJSON(ctx, upstreamName, c.cfg.BaseURL+"/reverse", params, &p); err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	if p.Error != "" {
		return nil, fmt.Errorf("reverse geocode: %s", p.Error)
	}

	cand, err := p.toCandidate()
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	return &cand, nil
}
