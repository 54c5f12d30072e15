package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/alexivanou/weatherquery-api/internal/database"
	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*Container, *sqlx.DB, func()) {
	cfg := config.DBConfig{Type: config.DBTypeMemory}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)

	err = database.Migrate(db, cfg, "../../migrations")
	require.NoError(t, err)

	repos := NewRepositories(db, config.DBTypeMemory)
	cleanup := func() {
		db.Close()
	}
	return repos, db, cleanup
}

func austin() *model.ResolvedLocation {
	return &model.ResolvedLocation{
		ExternalID: "1001",
		Name:       "Austin",
		Region:     "Texas",
		Country:    "United States",
		Lat:        30.2711,
		Lon:        -97.7437,
	}
}

func TestLocationRepository_Upsert(t *testing.T) {
	repos, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repos.Location.Upsert(ctx, austin())
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Austin", first.Name)
	assert.Nil(t, first.Timezone)
	assert.False(t, first.CreatedAt.IsZero())

	renamed := austin()
	renamed.Name = "Austin City"
	second, err := repos.Location.Upsert(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Austin", second.Name, "existing row is returned unchanged")
}

func TestLocationRepository_ConcurrentUpsert(t *testing.T) {
	repos, db, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loc, err := repos.Location.Upsert(ctx, austin())
			errs[i] = err
			if loc != nil {
				ids[i] = loc.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM resolved_locations WHERE external_id = ?", "1001"))
	assert.Equal(t, 1, count)
}

func TestLocationRepository_Find(t *testing.T) {
	repos, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	stored, err := repos.Location.Upsert(ctx, austin())
	require.NoError(t, err)

	byExt, err := repos.Location.FindByExternalID(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, byExt)
	assert.Equal(t, stored.ID, byExt.ID)

	byID, err := repos.Location.FindByID(ctx, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "1001", byID.ExternalID)

	missing, err := repos.Location.FindByExternalID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = repos.Location.FindByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLocationRepository_SetTimezone(t *testing.T) {
	repos, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	stored, err := repos.Location.Upsert(ctx, austin())
	require.NoError(t, err)

	require.NoError(t, repos.Location.SetTimezone(ctx, stored.ID, "America/Chicago"))
	require.NoError(t, repos.Location.SetTimezone(ctx, stored.ID, "America/Denver"))

	got, err := repos.Location.FindByID(ctx, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Timezone)
	assert.Equal(t, "America/Chicago", *got.Timezone, "an existing timezone is kept")
}

func TestLocationRepository_List(t *testing.T) {
	repos, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	empty, err := repos.Location.List(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, ext := range []string{"1", "2", "3"} {
		loc := austin()
		loc.ExternalID = ext
		_, err := repos.Location.Upsert(ctx, loc)
		require.NoError(t, err)
	}

	all, err := repos.Location.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	two, err := repos.Location.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}
