package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bcnelson/spark/internal/generator"
	"github.com/bcnelson/spark/internal/metrics"
	"github.com/bcnelson/spark/internal/storage"
	"github.com/bcnelson/spark/pkg/spark"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router    *gin.Engine
	generator *generator.StaticGenerator
}

func newTestServer(t *testing.T, gen *generator.StaticGenerator) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.NewDB(storage.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = storage.NewMigrator(db).Up(context.Background())
	require.NoError(t, err)

	activities := storage.NewActivityRepository(db)
	feedback := storage.NewFeedbackRepository(db)
	prefs := storage.NewPreferencesRepository(db)

	collector, err := metrics.NewCollector()
	require.NoError(t, err)

	if gen == nil {
		gen = generator.NewStaticGenerator()
	}

	router, err := NewRouter(RouterConfig{
		Activities:  spark.NewActivityService(activities, nil),
		Ledger:      spark.NewLedger(activities, feedback, nil),
		Recommender: spark.NewRecommender(activities, gen, spark.RecommenderConfig{}, collector, nil),
		Preferences: spark.NewPreferencesService(prefs, activities, nil),
		Health:      db,
		Metrics:     collector,
		Version:     "test",
	})
	require.NoError(t, err)

	return &testServer{router: router, generator: gen}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type deckResponse struct {
	Activities []struct {
		ID    int64  `json:"id"`
		State string `json:"state"`
	} `json:"activities"`
	Total int `json:"total"`
}

func TestRecommendationsServeStoredDeckBeforeGenerating(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/recommendations", gin.H{"energy_level": 60, "location": "Amsterdam"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first deckResponse
	decode(t, w, &first)
	assert.Equal(t, 5, first.Total)
	assert.Equal(t, "unswiped", first.Activities[0].State)

	w = s.do(t, http.MethodPost, "/api/v1/recommendations", gin.H{"energy_level": 10})
	require.Equal(t, http.StatusOK, w.Code)
	var second deckResponse
	decode(t, w, &second)
	assert.Equal(t, 5, second.Total)
	assert.Equal(t, 1, s.generator.Calls())
}

func TestRecommendationsRejectBadEnergy(t *testing.T) {
	s := newTestServer(t, nil)

	for _, body := range []gin.H{{"energy_level": 150}, {"energy_level": -1}, {"location": "home"}} {
		w := s.do(t, http.MethodPost, "/api/v1/recommendations", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		decode(t, w, &resp)
		assert.Equal(t, "VALIDATION", resp.Code)
	}
	assert.Zero(t, s.generator.Calls())
}

func TestRecommendationsGenerationFailure(t *testing.T) {
	gen := generator.NewStaticGenerator()
	gen.Err = errors.New("upstream down")
	s := newTestServer(t, gen)

	w := s.do(t, http.MethodPost, "/api/v1/recommendations", gin.H{"energy_level": 50})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "GENERATION_FAILED", resp.Code)
}

func TestActivityLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/recommendations", gin.H{"energy_level": 50}).Code)

	w := s.do(t, http.MethodPost, "/api/v1/activities/1/swipe", gin.H{"liked": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var swiped ActivityResponse
	decode(t, w, &swiped)
	assert.Equal(t, "planned", string(swiped.State))

	w = s.do(t, http.MethodPost, "/api/v1/activities/2/swipe", gin.H{"liked": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/activities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var liked deckResponse
	decode(t, w, &liked)
	assert.Equal(t, 1, liked.Total)
	assert.Equal(t, int64(1), liked.Activities[0].ID)

	w = s.do(t, http.MethodPost, "/api/v1/activities/1/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/activities/1/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPatch, "/api/v1/activities/1/status", gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var done ActivityResponse
	decode(t, w, &done)
	assert.Equal(t, "completed", string(done.State))
	assert.NotNil(t, done.CompletedAt)

	w = s.do(t, http.MethodPost, "/api/v1/activities/1/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var conflict ErrorResponse
	decode(t, w, &conflict)
	assert.Equal(t, "INVALID_TRANSITION", conflict.Code)

	w = s.do(t, http.MethodPost, "/api/v1/activities/2/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/activities?status=completed", nil)
	decode(t, w, &liked)
	assert.Equal(t, 1, liked.Total)

	w = s.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		ActivitiesCompleted int `json:"activities_completed"`
		Disliked            int `json:"disliked"`
	}
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.ActivitiesCompleted)
	assert.Equal(t, 1, stats.Disliked)

	w = s.do(t, http.MethodGet, "/api/v1/swipes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history spark.SwipeHistory
	decode(t, w, &history)
	assert.Equal(t, []int64{1}, history.Liked)
	assert.Equal(t, []int64{2}, history.Disliked)
}

func TestPatchStatusRejectsUnknownStatus(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/recommendations", gin.H{"energy_level": 50}).Code)

	w := s.do(t, http.MethodPatch, "/api/v1/activities/1/status", gin.H{"status": "abandoned"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	details, ok := resp.Details.(map[string]interface{})
	require.True(t, ok, "details: %v", resp.Details)
	assert.Equal(t, "activity_status", details["Status"])
}

func TestActivityLookupErrors(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/activities/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "NOT_FOUND", resp.Code)

	w = s.do(t, http.MethodGet, "/api/v1/activities/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/activities?duration=epic", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleTaskAndDelete(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/recommendations", gin.H{"energy_level": 50}).Code)

	// Generated tasks are not stored by default.
	w := s.do(t, http.MethodPost, "/api/v1/activities/1/tasks/1/toggle", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/activities/1/tasks/x/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/activities/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/activities/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/recommendations", gin.H{"energy_level": 50}).Code)

	w := s.do(t, http.MethodPost, "/api/v1/activities/1/feedback", gin.H{"polarity": "like", "enjoyment": 4, "reflection": "Loved it"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/activities/1/feedback", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored struct {
		Polarity  string `json:"polarity"`
		Enjoyment int    `json:"enjoyment"`
	}
	decode(t, w, &stored)
	assert.Equal(t, "positive", stored.Polarity)
	assert.Equal(t, 4, stored.Enjoyment)

	w = s.do(t, http.MethodPost, "/api/v1/activities/1/feedback", gin.H{"kind": "morning", "polarity": "negative", "enjoyment": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/activities/1/feedback", gin.H{"polarity": "meh"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/activities/1/feedback?kind=morning", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/activities/42/feedback", gin.H{"polarity": "positive"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreferencesEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/preferences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var prefs struct {
		EnergyPreference int      `json:"energy_preference"`
		Categories       []string `json:"categories"`
	}
	decode(t, w, &prefs)
	assert.Equal(t, 50, prefs.EnergyPreference)
	assert.Len(t, prefs.Categories, 5)

	w = s.do(t, http.MethodPatch, "/api/v1/preferences", gin.H{"energy_preference": 80})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &prefs)
	assert.Equal(t, 80, prefs.EnergyPreference)

	w = s.do(t, http.MethodPatch, "/api/v1/preferences", gin.H{"energy_preference": 500})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/preferences", nil)
	decode(t, w, &prefs)
	assert.Equal(t, 80, prefs.EnergyPreference)
}

func TestListAppliesPreferredCategories(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/recommendations", gin.H{"energy_level": 50}).Code)
	for _, id := range []string{"1", "2"} {
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/activities/"+id+"/swipe", gin.H{"liked": true}).Code)
	}

	w := s.do(t, http.MethodPatch, "/api/v1/preferences", gin.H{"categories": []string{"craft-burst"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	type listResponse struct {
		deckResponse
		FilterStats struct {
			Total         int `json:"total"`
			Visible       int `json:"visible"`
			FilterResults map[string]struct {
				Hidden int `json:"hidden"`
			} `json:"filter_results"`
		} `json:"filter_stats"`
	}

	w = s.do(t, http.MethodGet, "/api/v1/activities", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list listResponse
	decode(t, w, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, int64(2), list.Activities[0].ID)
	assert.Equal(t, 2, list.FilterStats.Total)
	assert.Equal(t, 1, list.FilterStats.Visible)
	assert.Equal(t, 1, list.FilterStats.FilterResults["category"].Hidden)

	w = s.do(t, http.MethodGet, "/api/v1/activities?category=body-reboot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = listResponse{}
	decode(t, w, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, int64(1), list.Activities[0].ID)
}

func TestCatalogHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var catalog struct {
		Categories []categoryEntry `json:"categories"`
	}
	decode(t, w, &catalog)
	require.Len(t, catalog.Categories, 5)
	assert.Equal(t, "micro-escape", catalog.Categories[0].ID)

	w = s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	var health struct {
		Status   string          `json:"status"`
		Database storage.DBStats `json:"database"`
	}
	decode(t, w, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 1, health.Database.MaxOpenConnections)

	s.do(t, http.MethodPost, "/api/v1/recommendations", gin.H{"energy_level": 50})
	w = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `spark_recommendations_batches_total{source="generator"} 1`), body)
	assert.Contains(t, body, `route="/api/v1/recommendations"`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodOptions, "/api/v1/activities", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
