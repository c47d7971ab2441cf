package spark

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bcnelson/spark/internal/generator"
	"github.com/bcnelson/spark/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(title string, category models.Category, distance float64, duration string) generator.Candidate {
	return generator.CandidateFrom(*seedActivity(title, category, distance, duration))
}

func mixedCandidates() []generator.Candidate {
	missingWhy := candidate("No reason", models.CategoryCityLens, 1, "20 min")
	missingWhy.Why = nil
	badCategory := candidate("Deep dive", models.CategoryCityLens, 1, "20 min")
	deep := "Deep dive"
	badCategory.Category = &deep

	return []generator.Candidate{
		candidate("Stair sprint", models.CategoryBodyReboot, 0, "10 min"),
		missingWhy,
		candidate("Cafe sketch", models.CategoryCityLens, 0.7, "45 min"),
		badCategory,
		candidate("Library roulette", models.CategoryLearningBite, 3, "75 min"),
	}
}

func TestFetchBatchGeneratesWhenDeckIsEmpty(t *testing.T) {
	ctx := context.Background()
	repo := newMemActivityRepo()
	gen := generator.NewStaticGenerator(mixedCandidates()...)
	observer := newCountingObserver()
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	r := NewRecommender(repo, gen, RecommenderConfig{}, observer, nil)
	r.clock = fixedClock(now)

	batch, err := r.FetchBatch(ctx, 70, "")
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, "Stair sprint", batch[0].Title)
	for _, a := range batch {
		assert.NotZero(t, a.ID)
		assert.True(t, a.IsGenerated)
		assert.Equal(t, models.SwipeUnswiped, a.SwipeStatus)
		assert.Equal(t, now, *a.GeneratedAt)
		assert.Empty(t, a.Tasks)
	}

	stored, err := repo.ListBySwipeStatus(ctx, models.SwipeUnswiped)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	assert.Equal(t, 3, observer.accepted)
	assert.Equal(t, 2, observer.rejected)
	assert.Equal(t, 1, observer.batches[SourceGenerator])
}

func TestFetchBatchServesStoredDeckFirst(t *testing.T) {
	ctx := context.Background()
	repo := newMemActivityRepo()
	first := seedActivity("First", models.CategoryMicroEscape, 1, "30 min")
	second := seedActivity("Second", models.CategoryMicroEscape, 1, "30 min")
	t1, t2 := time.Now().Add(-time.Hour), time.Now()
	second.GeneratedAt, first.GeneratedAt = &t2, &t1
	require.NoError(t, repo.InsertBatch(ctx, []*models.Activity{second, first}))

	gen := generator.NewStaticGenerator()
	observer := newCountingObserver()
	r := NewRecommender(repo, gen, RecommenderConfig{}, observer, nil)

	batch, err := r.FetchBatch(ctx, 50, "Lisbon")
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "First", batch[0].Title)
	assert.Equal(t, "Second", batch[1].Title)
	assert.Zero(t, gen.Calls())
	assert.Equal(t, 1, observer.batches[SourceStore])
}

func TestFetchBatchGeneratorFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemActivityRepo()
	gen := generator.NewStaticGenerator()
	gen.Err = errors.New("connection refused")
	observer := newCountingObserver()

	r := NewRecommender(repo, gen, RecommenderConfig{}, observer, nil)
	_, err := r.FetchBatch(ctx, 50, "")
	assert.True(t, models.IsKind(err, models.KindGenerationFailed))
	assert.Equal(t, 1, gen.Calls(), "no retry")
	assert.Zero(t, repo.writeCount())
	assert.Equal(t, 1, observer.failures)
}

func TestFetchBatchAllCandidatesInvalid(t *testing.T) {
	ctx := context.Background()
	repo := newMemActivityRepo()
	bad := candidate("Bad", models.CategoryCityLens, 1, "soon")
	gen := generator.NewStaticGenerator(bad, generator.Candidate{})

	r := NewRecommender(repo, gen, RecommenderConfig{}, nil, nil)
	_, err := r.FetchBatch(ctx, 50, "")
	assert.True(t, models.IsKind(err, models.KindGenerationFailed))
	assert.Zero(t, repo.writeCount())
}

func TestFetchBatchRejectsEnergyOutOfRange(t *testing.T) {
	gen := generator.NewStaticGenerator()
	r := NewRecommender(newMemActivityRepo(), gen, RecommenderConfig{}, nil, nil)

	for _, energy := range []int{-1, 101} {
		_, err := r.FetchBatch(context.Background(), energy, "")
		assert.True(t, models.IsKind(err, models.KindValidation), "energy %d", energy)
	}
	assert.Zero(t, gen.Calls())
}

func TestFetchBatchPersistTasks(t *testing.T) {
	gen := generator.NewStaticGenerator(candidate("Stair sprint", models.CategoryBodyReboot, 0, "10 min"))
	r := NewRecommender(newMemActivityRepo(), gen, RecommenderConfig{PersistTasks: true}, nil, nil)

	batch, err := r.FetchBatch(context.Background(), 50, "")
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Len(t, batch[0].Tasks, 2)
}

func TestFetchBatchStoreFailure(t *testing.T) {
	repo := newMemActivityRepo()
	repo.insertErr = models.WrapError(models.KindStoreUnavailable, "insert", errors.New("disk full"))
	r := NewRecommender(repo, generator.NewStaticGenerator(), RecommenderConfig{}, nil, nil)

	_, err := r.FetchBatch(context.Background(), 50, "")
	assert.True(t, models.IsKind(err, models.KindStoreUnavailable))

	repo.insertErr = nil
	repo.listErr = models.WrapError(models.KindStoreUnavailable, "list", errors.New("locked"))
	_, err = r.FetchBatch(context.Background(), 50, "")
	assert.True(t, models.IsKind(err, models.KindStoreUnavailable))
}

func TestFetchBatchDropsMistypedGeneratedItem(t *testing.T) {
	ctx := context.Background()
	good, err := json.Marshal(candidate("Stair sprint", models.CategoryBodyReboot, 0.5, "10 min"))
	require.NoError(t, err)
	other, err := json.Marshal(candidate("Cafe sketch", models.CategoryCityLens, 0.7, "45 min"))
	require.NoError(t, err)
	mistyped := strings.Replace(string(good), `"distance":0.5`, `"distance":"1.2 km"`, 1)
	require.NotEqual(t, string(good), mistyped)
	content := `{"activities":[` + string(good) + `,` + mistyped + `,` + string(other) + `]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			}},
		})
	}))
	defer srv.Close()

	config := generator.DefaultConfig()
	config.APIKey = "test-key"
	config.BaseURL = srv.URL
	gen, err := generator.NewOpenAIGenerator(config, nil)
	require.NoError(t, err)

	repo := newMemActivityRepo()
	observer := newCountingObserver()
	r := NewRecommender(repo, gen, RecommenderConfig{}, observer, nil)

	batch, err := r.FetchBatch(ctx, 50, "Porto")
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "Stair sprint", batch[0].Title)
	assert.Equal(t, "Cafe sketch", batch[1].Title)

	stored, err := repo.ListBySwipeStatus(ctx, models.SwipeUnswiped)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, 2, observer.accepted)
	assert.Equal(t, 1, observer.rejected)
}
