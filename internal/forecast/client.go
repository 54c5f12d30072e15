package forecast

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexivanou/weatherquery-api/internal/apperror"
	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/alexivanou/weatherquery-api/internal/httpclient"
	"github.com/alexivanou/weatherquery-api/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const upstreamName = "forecast"

// Gridpoint is the provider's forecast addressing unit for a coordinate.
type Gridpoint struct {
	ForecastURL       string
	ForecastHourlyURL string
	TimeZone          string
}

// QuantitativeValue is a nullable measurement.
type QuantitativeValue struct {
	Value    *float64 `json:"value"`
	UnitCode string   `json:"unitCode"`
}

// Period is one forecast period as returned by the provider.
type Period struct {
	Number                     int               `json:"number"`
	Name                       string            `json:"name"`
	StartTime                  string            `json:"startTime"`
	EndTime                    string            `json:"endTime"`
	IsDaytime                  bool              `json:"isDaytime"`
	Temperature                float64           `json:"temperature"`
	TemperatureUnit            string            `json:"temperatureUnit"`
	WindSpeed                  string            `json:"windSpeed"`
	WindDirection              string            `json:"windDirection"`
	Icon                       string            `json:"icon"`
	ShortForecast              string            `json:"shortForecast"`
	ProbabilityOfPrecipitation QuantitativeValue `json:"probabilityOfPrecipitation"`
	RelativeHumidity           QuantitativeValue `json:"relativeHumidity"`
	Dewpoint                   QuantitativeValue `json:"dewpoint"`
}

type pointsResponse struct {
	Properties struct {
		Forecast       string `json:"forecast"`
		ForecastHourly string `json:"forecastHourly"`
		TimeZone       string `json:"timeZone"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []Period `json:"periods"`
	} `json:"properties"`
}

// Client fetches gridpoint forecasts and normalizes them into snapshots.
type Client struct {
	http   *httpclient.Client
	cfg    config.ForecastConfig
	logger *zap.Logger
}

// NewClient creates a forecast client
func NewClient(hc *httpclient.Client, cfg config.ForecastConfig, logger *zap.Logger) *Client {
	return &Client{http: hc, cfg: cfg, logger: logger}
}

// Points resolves coordinates to a gridpoint. Coordinates the provider does
// not cover yield LOCATION_NOT_SUPPORTED.
func (c *Client) Points(ctx context.Context, lat, lon float64) (*Gridpoint, error) {
	url := fmt.Sprintf("%s/points/%.4f,%.4f", c.cfg.BaseURL, lat, lon)

	var resp pointsResponse
	if err := c.http.GetJSON(ctx, upstreamName, url, nil, &resp); err != nil {
		switch httpclient.StatusCode(err) {
		case http.StatusNotFound, http.StatusBadRequest:
			return nil, apperror.Wrap(apperror.LocationNotSupported, err)
		}
		return nil, fmt.Errorf("failed to resolve gridpoint: %w", err)
	}

	p := resp.Properties
	if p.Forecast == "" || p.ForecastHourly == "" {
		return nil, apperror.Newf(apperror.LocationNotSupported, "no forecast available for %.4f,%.4f", lat, lon)
	}
	return &Gridpoint{
		ForecastURL:       p.Forecast,
		ForecastHourlyURL: p.ForecastHourly,
		TimeZone:          p.TimeZone,
	}, nil
}

// Periods fetches the periods behind a forecast URL.
func (c *Client) Periods(ctx context.Context, url string) ([]Period, error) {
	var resp forecastResponse
	if err := c.http.GetJSON(ctx, upstreamName, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	return resp.Properties.Periods, nil
}

// Snapshot runs the gridpoint, daily and hourly calls for loc and returns the
// normalized weather. The daily and hourly forecasts are fetched concurrently.
func (c *Client) Snapshot(ctx context.Context, loc model.LocationInfo) (*model.WeatherSnapshot, error) {
	grid, err := c.Points(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return nil, err
	}

	var daily, hourly []Period
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		daily, err = c.Periods(gctx, grid.ForecastURL)
		return err
	})
	g.Go(func() error {
		var err error
		hourly, err = c.Periods(gctx, grid.ForecastHourlyURL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched forecast",
		zap.Float64("lat", loc.Lat),
		zap.Float64("lon", loc.Lon),
		zap.Int("daily_periods", len(daily)),
		zap.Int("hourly_periods", len(hourly)),
	)

	if grid.TimeZone != "" {
		loc.Timezone = grid.TimeZone
	}
	return &model.WeatherSnapshot{
		Location: loc,
		Current:  CurrentFromPeriods(hourly, daily),
		Forecast: GroupDays(daily, hourly, c.days()),
	}, nil
}

func (c *Client) days() int {
	if c.cfg.Days <= 0 {
		return MaxForecastDays
	}
	return c.cfg.Days
}
