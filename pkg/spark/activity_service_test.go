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

func likedFixture(t *testing.T) (*memActivityRepo, *ActivityService) {
	t.Helper()
	ctx := context.Background()
	repo := newMemActivityRepo()
	base := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	pier := seedActivity("Pier sketch", models.CategoryMicroEscape, 0.8, "45 min")
	clay := seedActivity("Clay workshop", models.CategoryCraftBurst, 2.5, "60 min")
	skipped := seedActivity("Karaoke", models.CategoryCityLens, 0.2, "90 min")
	for i, a := range []*models.Activity{pier, clay, skipped} {
		a.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Insert(ctx, a))
	}
	for _, id := range []int64{pier.ID, clay.ID} {
		a, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		a.Like(base)
		require.NoError(t, repo.UpdateSwipe(ctx, a))
	}

	service := NewActivityService(repo, nil)
	service.clock = fixedClock(base.Add(time.Hour))
	return repo, service
}

func TestActivityServiceList(t *testing.T) {
	ctx := context.Background()
	_, service := likedFixture(t)

	t.Run("only liked activities, newest first", func(t *testing.T) {
		list, err := service.List(ctx, filters.DefaultConfig)
		require.NoError(t, err)
		require.Len(t, list.Activities, 2)
		assert.Equal(t, "Clay workshop", list.Activities[0].Title)
		assert.Equal(t, "Pier sketch", list.Activities[1].Title)
		assert.Equal(t, 2, list.Stats.Total)
		assert.Equal(t, 2, list.Stats.Visible)
	})

	t.Run("nearby bucket", func(t *testing.T) {
		list, err := service.List(ctx, filters.Config{Distance: filters.DistanceNearby})
		require.NoError(t, err)
		require.Len(t, list.Activities, 1)
		assert.Equal(t, "Pier sketch", list.Activities[0].Title)
		assert.Equal(t, 1, list.Stats.FilterResults["distance"].Hidden)
	})

	t.Run("status filter", func(t *testing.T) {
		list, err := service.List(ctx, filters.Config{Status: filters.StatusCompleted})
		require.NoError(t, err)
		assert.Empty(t, list.Activities)
	})

	t.Run("unknown bucket is a validation error", func(t *testing.T) {
		_, err := service.List(ctx, filters.Config{Duration: "forever"})
		assert.True(t, models.IsKind(err, models.KindValidation))
	})
}

func TestActivityServiceListMalformedDuration(t *testing.T) {
	ctx := context.Background()
	repo, service := likedFixture(t)

	broken := seedActivity("Mystery walk", models.CategoryMicroEscape, 1, "a while")
	broken.Like(time.Now())
	require.NoError(t, repo.Insert(ctx, broken))

	_, err := service.List(ctx, filters.Config{Duration: filters.DurationShort})
	assert.True(t, models.IsKind(err, models.KindValidation))

	list, err := service.List(ctx, filters.DefaultConfig)
	require.NoError(t, err)
	assert.Len(t, list.Activities, 3)
}

func TestActivityServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, service := likedFixture(t)

	started, err := service.Start(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateInProgress, started.State())

	writes := repo.writeCount()
	_, err = service.Start(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, writes, repo.writeCount(), "repeated start must not write")

	done, err := service.Complete(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	firstCompletion := *done.CompletedAt

	service.clock = fixedClock(firstCompletion.Add(24 * time.Hour))
	again, err := service.Complete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, firstCompletion, *again.CompletedAt)

	_, err = service.Start(ctx, 1)
	assert.True(t, models.IsKind(err, models.KindInvalidTransition))
}

func TestActivityServiceTransitionErrors(t *testing.T) {
	ctx := context.Background()
	_, service := likedFixture(t)

	_, err := service.Start(ctx, 3)
	assert.True(t, models.IsKind(err, models.KindInvalidTransition), "unswiped activity cannot start")

	_, err = service.Complete(ctx, 404)
	assert.True(t, models.IsKind(err, models.KindNotFound))

	_, err = service.Transition(ctx, 1, models.ActivityStatus("paused"))
	assert.True(t, models.IsKind(err, models.KindValidation))
}

func TestActivityServiceToggleTask(t *testing.T) {
	ctx := context.Background()
	repo, service := likedFixture(t)

	a, err := service.ToggleTask(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, a.Tasks[1].Completed)

	stored, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, stored.Tasks[1].Completed)

	_, err = service.ToggleTask(ctx, 1, 9)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestActivityServiceExplainAndDelete(t *testing.T) {
	ctx := context.Background()
	_, service := likedFixture(t)

	explanation, err := service.Explain(ctx, 2, filters.Config{Distance: filters.DistanceNearby})
	require.NoError(t, err)
	assert.False(t, explanation.IsVisible)
	assert.Equal(t, "Clay workshop", explanation.ActivityTitle)

	require.NoError(t, service.Delete(ctx, 2))
	_, err = service.Get(ctx, 2)
	assert.True(t, models.IsKind(err, models.KindNotFound))
	assert.True(t, models.IsKind(service.Delete(ctx, 2), models.KindNotFound))
}
