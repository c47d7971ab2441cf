package spark

import (
	"context"
	"testing"
	"time"

	"github.com/bcnelson/spark/pkg/filters"
	"github.com/bcnelson/spark/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferencesUpdate(t *testing.T) {
	ctx := context.Background()
	prefs := &memPreferencesRepo{}
	service := NewPreferencesService(prefs, newMemActivityRepo(), nil)
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	service.clock = fixedClock(now)

	current, err := service.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), current)

	distance := 2.5
	categories := []string{"city-lens", "craft-burst"}
	updated, err := service.Update(ctx, models.PreferencesUpdate{MaxDistance: &distance, Categories: &categories})
	require.NoError(t, err)
	assert.Equal(t, 2.5, updated.MaxDistance)
	assert.Equal(t, 50, updated.EnergyPreference)
	assert.Equal(t, now, updated.UpdatedAt)
	assert.Equal(t, 1, prefs.saves)

	bad := 500
	_, err = service.Update(ctx, models.PreferencesUpdate{EnergyPreference: &bad})
	assert.True(t, models.IsKind(err, models.KindValidation))
	assert.Equal(t, 1, prefs.saves)

	stored, err := service.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, categories, stored.Categories)
}

func TestPreferencesApplyDefaults(t *testing.T) {
	ctx := context.Background()
	service := NewPreferencesService(&memPreferencesRepo{}, newMemActivityRepo(), nil)

	config, err := service.ApplyDefaults(ctx, filters.DefaultConfig)
	require.NoError(t, err)
	assert.Empty(t, config.Categories)

	categories := []string{"body-reboot"}
	_, err = service.Update(ctx, models.PreferencesUpdate{Categories: &categories})
	require.NoError(t, err)

	config, err = service.ApplyDefaults(ctx, filters.Config{Distance: filters.DistanceNearby})
	require.NoError(t, err)
	assert.Equal(t, []models.Category{models.CategoryBodyReboot}, config.Categories)
	assert.Equal(t, filters.DistanceNearby, config.Distance)

	explicit := filters.Config{Categories: []models.Category{models.CategoryCityLens}}
	config, err = service.ApplyDefaults(ctx, explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit.Categories, config.Categories)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	repo := newMemActivityRepo()
	now := time.Now()

	add := func(title string, category models.Category, duration string, state models.LifecycleState) {
		a := seedActivity(title, category, 1, duration)
		switch state {
		case models.StateDisliked:
			a.Dislike(now)
		case models.StatePlanned:
			a.Like(now)
		case models.StateInProgress:
			a.Like(now)
			_, err := a.Start(now)
			require.NoError(t, err)
		case models.StateCompleted:
			a.Like(now)
			_, err := a.Complete(now)
			require.NoError(t, err)
		}
		require.NoError(t, repo.Insert(ctx, a))
	}

	add("a", models.CategoryCraftBurst, "30 min", models.StateCompleted)
	add("b", models.CategoryCityLens, "45 min", models.StateCompleted)
	add("c", models.CategoryCraftBurst, "15 min", models.StateCompleted)
	add("d", models.CategoryCityLens, "whenever", models.StateCompleted)
	add("e", models.CategoryBodyReboot, "10 min", models.StatePlanned)
	add("f", models.CategoryBodyReboot, "10 min", models.StateInProgress)
	add("g", models.CategoryBodyReboot, "10 min", models.StateDisliked)
	add("h", models.CategoryBodyReboot, "10 min", models.StateUnswiped)

	service := NewPreferencesService(&memPreferencesRepo{}, repo, nil)
	stats, err := service.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.ActivitiesCompleted)
	assert.Equal(t, 1, stats.Planned)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 6, stats.Liked)
	assert.Equal(t, 1, stats.Disliked)
	assert.Equal(t, 90, stats.TotalMinutes)
	// Tied at two completions each; catalog order puts City-lens first.
	assert.Equal(t, "city-lens", stats.FavoriteCategory)
}

func TestStatsEmpty(t *testing.T) {
	service := NewPreferencesService(&memPreferencesRepo{}, newMemActivityRepo(), nil)
	stats, err := service.Stats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats.FavoriteCategory)
	assert.Zero(t, stats.TotalMinutes)
}
