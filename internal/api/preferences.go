package api

import (
	"context"
	"net/http"

	"github.com/bcnelson/spark/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PreferencesService interface {
	Get(ctx context.Context) (models.UserPreferences, error)
	Update(ctx context.Context, update models.PreferencesUpdate) (models.UserPreferences, error)
	Stats(ctx context.Context) (models.UserStats, error)
	FilterDefaults
}

type PreferencesHandler struct {
	preferences PreferencesService
	logger      *zap.Logger
}

func NewPreferencesHandler(preferences PreferencesService, logger *zap.Logger) *PreferencesHandler {
	return &PreferencesHandler{
		preferences: preferences,
		logger:      logger,
	}
}

func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.preferences.Get(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	var update models.PreferencesUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondBindError(c, err)
		return
	}

	prefs, err := h.preferences.Update(c.Request.Context(), update)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *PreferencesHandler) GetStats(c *gin.Context) {
	stats, err := h.preferences.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type categoryEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func catalogHandler(c *gin.Context) {
	categories := make([]categoryEntry, 0, len(models.Categories))
	for _, category := range models.Categories {
		categories = append(categories, categoryEntry{ID: category.ID(), Label: string(category)})
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"interests":  models.Interests,
	})
}
