package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/apperror"
	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/alexivanou/weatherquery-api/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, query string, ref time.Time) (*model.Intent, error) {
	args := m.Called(ctx, query, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Intent), args.Error(1)
}

type MockWeather struct {
	mock.Mock
}

func (m *MockWeather) Snapshot(ctx context.Context, loc model.LocationInfo) (*model.WeatherSnapshot, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WeatherSnapshot), args.Error(1)
}

// MockLocationRepository implements repository.LocationRepository interface
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) Upsert(ctx context.Context, loc *model.ResolvedLocation) (*model.ResolvedLocation, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResolvedLocation), args.Error(1)
}

func (m *MockLocationRepository) FindByExternalID(ctx context.Context, externalID string) (*model.ResolvedLocation, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResolvedLocation), args.Error(1)
}

func (m *MockLocationRepository) FindByID(ctx context.Context, id string) (*model.ResolvedLocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResolvedLocation), args.Error(1)
}

func (m *MockLocationRepository) List(ctx context.Context, limit int) ([]model.ResolvedLocation, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ResolvedLocation), args.Error(1)
}

func (m *MockLocationRepository) SetTimezone(ctx context.Context, id, timezone string) error {
	args := m.Called(ctx, id, timezone)
	return args.Error(0)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Search(ctx context.Context, query string, limit int) ([]model.GeocodeCandidate, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GeocodeCandidate), args.Error(1)
}

func (m *MockGeocoder) SearchCitiesInState(ctx context.Context, state string) ([]model.GeocodeCandidate, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GeocodeCandidate), args.Error(1)
}

func (m *MockGeocoder) Reverse(ctx context.Context, lat, lon float64) (*model.GeocodeCandidate, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GeocodeCandidate), args.Error(1)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

type fixture struct {
	extractor *MockExtractor
	geo       *MockGeocoder
	weather   *MockWeather
	repo      *MockLocationRepository
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		extractor: new(MockExtractor),
		geo:       new(MockGeocoder),
		weather:   new(MockWeather),
		repo:      new(MockLocationRepository),
	}
	res := resolver.New(f.geo, resolver.Options{StateImportanceThreshold: 0.7, MaxOptions: 5, ResultLimit: 5}, zap.NewNop())
	f.svc = NewService(f.extractor, res, f.weather, f.repo, zap.NewNop())
	f.svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

var (
	portlandOR = model.GeocodeCandidate{
		PlaceID: 201, DisplayName: "Portland, Multnomah County, Oregon, United States",
		Address: model.Address{City: "Portland", County: "Multnomah County", State: "Oregon", Country: "United States"},
		Lat:     45.5152, Lon: -122.6784,
	}
	southPortland = model.GeocodeCandidate{
		PlaceID: 202, DisplayName: "South Portland, Cumberland County, Maine, United States",
		Address: model.Address{City: "South Portland", County: "Cumberland County", State: "Maine", Country: "United States"},
		Lat:     43.6415, Lon: -70.2409,
	}
	snapshot = &model.WeatherSnapshot{
		Location: model.LocationInfo{Name: "South Portland", Region: "Maine", Timezone: "America/New_York"},
		Current:  &model.CurrentConditions{TempF: 61.6, FeelsLikeF: 61.6, Condition: "Cloudy", Humidity: 70, WindMph: 8},
	}
)

func currentIntent(location string) *model.Intent {
	return &model.Intent{IntentType: model.IntentCurrent, LocationProvided: true, Location: strPtr(location)}
}

func TestLookup_DisambiguationRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.extractor.On("Extract", ctx, "weather in portland", mock.Anything).Return(currentIntent("Portland"), nil).Once()
	f.geo.On("Search", ctx, "Portland", 5).Return([]model.GeocodeCandidate{portlandOR, southPortland}, nil)

	first, err := f.svc.Lookup(ctx, model.LookupRequest{Query: "weather in portland"})
	require.NoError(t, err)
	require.NotNil(t, first.Disambiguation)
	require.Nil(t, first.Answer)

	d := first.Disambiguation
	assert.True(t, d.RequiresDisambiguation)
	assert.Equal(t, "weather in portland", d.OriginalQuery)
	assert.Equal(t, *currentIntent("Portland"), d.Intent)
	require.Len(t, d.Locations, 2)
	assert.Equal(t, 0, d.Locations[0].Index)
	assert.Equal(t, 1, d.Locations[1].Index)
	assert.Equal(t, "South Portland", d.Locations[1].Name)

	stored := &model.ResolvedLocation{
		ID: "loc-1", ExternalID: "202", Name: "South Portland", Region: "Maine", Country: "United States",
		Lat: 43.6415, Lon: -70.2409,
	}
	f.repo.On("FindByExternalID", ctx, "202").Return(nil, nil)
	f.repo.On("Upsert", ctx, mock.MatchedBy(func(l *model.ResolvedLocation) bool {
		return l.ExternalID == "202" && l.Name == "South Portland"
	})).Return(stored, nil)
	f.weather.On("Snapshot", ctx, mock.MatchedBy(func(l model.LocationInfo) bool {
		return l.Lat == 43.6415 && l.Lon == -70.2409
	})).Return(snapshot, nil)
	f.repo.On("SetTimezone", ctx, "loc-1", "America/New_York").Return(nil)

	intent := d.Intent
	second, err := f.svc.Lookup(ctx, model.LookupRequest{
		Query:                 "weather in portland",
		Intent:                &intent,
		SelectedLocationIndex: intPtr(1),
	})
	require.NoError(t, err)
	require.Nil(t, second.Disambiguation)
	require.NotNil(t, second.Answer)
	require.NotNil(t, second.Answer.Card.Current)
	assert.Equal(t, 62, second.Answer.Card.Current.Temperature)
	assert.Equal(t, "Currently cloudy and 62°F in South Portland, Maine.", second.Answer.SummaryText)

	f.extractor.AssertNumberOfCalls(t, "Extract", 1)
	f.repo.AssertExpectations(t)
}

func TestLookup_SuppliedIntentSkipsExtractor(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	tz := "America/New_York"
	existing := &model.ResolvedLocation{ID: "loc-1", ExternalID: "202", Name: "South Portland", Region: "Maine", Lat: 43.6415, Lon: -70.2409, Timezone: &tz}
	f.geo.On("Search", ctx, "South Portland", 5).Return([]model.GeocodeCandidate{southPortland}, nil)
	f.repo.On("FindByExternalID", ctx, "202").Return(existing, nil)
	f.weather.On("Snapshot", ctx, model.LocationInfo{
		Name: "South Portland", Region: "Maine", Lat: 43.6415, Lon: -70.2409, Timezone: tz,
	}).Return(snapshot, nil)

	res, err := f.svc.Lookup(ctx, model.LookupRequest{
		Query:  "weather in south portland",
		Intent: currentIntent("South Portland"),
		Units:  model.UnitsMetric,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Answer)
	assert.Equal(t, 16, res.Answer.Card.Current.Temperature)

	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "SetTimezone", mock.Anything, mock.Anything, mock.Anything)
}

func TestLookup_InvalidSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.geo.On("Search", ctx, "South Portland", 5).Return([]model.GeocodeCandidate{southPortland}, nil)

	_, err := f.svc.Lookup(ctx, model.LookupRequest{
		Query:                 "weather in south portland",
		Intent:                currentIntent("South Portland"),
		SelectedLocationIndex: intPtr(5),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidSelection, apperror.From(err).Code)
	f.weather.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
}

func TestLookup_ErrorsAbortPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("extractor failure", func(t *testing.T) {
		f := newFixture()
		f.extractor.On("Extract", ctx, "??", mock.Anything).Return(nil, apperror.New(apperror.AIRateLimited))

		_, err := f.svc.Lookup(ctx, model.LookupRequest{Query: "??"})
		assert.Equal(t, apperror.AIRateLimited, apperror.From(err).Code)
		f.geo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown intent type", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Lookup(ctx, model.LookupRequest{Query: "x", Intent: &model.Intent{IntentType: "WEEKLY"}})
		assert.Equal(t, apperror.IntentExtractionFailed, apperror.From(err).Code)
	})

	t.Run("weather not supported", func(t *testing.T) {
		f := newFixture()
		f.geo.On("Search", ctx, "South Portland", 5).Return([]model.GeocodeCandidate{southPortland}, nil)
		f.repo.On("FindByExternalID", ctx, "202").Return(&model.ResolvedLocation{ID: "loc-1", ExternalID: "202"}, nil)
		f.weather.On("Snapshot", ctx, mock.Anything).Return(nil, apperror.New(apperror.LocationNotSupported))

		_, err := f.svc.Lookup(ctx, model.LookupRequest{Query: "x", Intent: currentIntent("South Portland")})
		assert.Equal(t, apperror.LocationNotSupported, apperror.From(err).Code)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture()
		f.geo.On("Search", ctx, "South Portland", 5).Return([]model.GeocodeCandidate{southPortland}, nil)
		f.repo.On("FindByExternalID", ctx, "202").Return(nil, errors.New("db down"))

		_, err := f.svc.Lookup(ctx, model.LookupRequest{Query: "x", Intent: currentIntent("South Portland")})
		assert.Equal(t, apperror.LookupError, apperror.From(err).Code)
		f.weather.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
	})
}

func TestLookup_CurrentLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.extractor.On("Extract", ctx, "is it raining", mock.Anything).
		Return(&model.Intent{IntentType: model.IntentCurrent, LocationProvided: false}, nil)
	f.geo.On("Reverse", ctx, 43.6415, -70.2409).Return(nil, errors.New("reverse unavailable"))
	f.repo.On("FindByExternalID", ctx, "43.6415,-70.2409").Return(nil, nil)
	f.repo.On("Upsert", ctx, mock.Anything).Return(&model.ResolvedLocation{
		ID: "loc-9", ExternalID: "43.6415,-70.2409", Name: resolver.CurrentLocationName, Lat: 43.6415, Lon: -70.2409,
	}, nil)
	f.weather.On("Snapshot", ctx, mock.Anything).Return(&model.WeatherSnapshot{
		Location: model.LocationInfo{Name: resolver.CurrentLocationName},
	}, nil)

	res, err := f.svc.Lookup(ctx, model.LookupRequest{
		Query:           "is it raining",
		CurrentLocation: &model.Coordinate{Lat: 43.6415, Lon: -70.2409},
	})
	require.NoError(t, err)
	assert.Equal(t, "Weather data retrieved for Current Location.", res.Answer.SummaryText)
	assert.Nil(t, res.Answer.Card.Current)
}

func TestLocations(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.repo.On("List", ctx, 10).Return([]model.ResolvedLocation{{ID: "a"}}, nil)
	f.repo.On("FindByID", ctx, "a").Return(&model.ResolvedLocation{ID: "a"}, nil)
	f.repo.On("FindByID", ctx, "b").Return(nil, nil)

	list, err := f.svc.ListLocations(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	loc, err := f.svc.GetLocation(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", loc.ID)

	loc, err = f.svc.GetLocation(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, loc)
}
