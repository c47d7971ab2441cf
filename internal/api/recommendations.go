package api

import (
	"context"
	"net/http"

	"github.com/bcnelson/spark/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Recommender interface {
	FetchBatch(ctx context.Context, energyLevel int, location string) ([]models.Activity, error)
}

type RecommendationHandler struct {
	recommender Recommender
	logger      *zap.Logger
}

func NewRecommendationHandler(recommender Recommender, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommender: recommender,
		logger:      logger,
	}
}

type RecommendationRequest struct {
	EnergyLevel *int   `json:"energy_level" binding:"required,min=0,max=100"`
	Location    string `json:"location" binding:"max=200"`
}

// FetchBatch serves the next swipe deck, generating one when the stored deck
// is empty.
func (h *RecommendationHandler) FetchBatch(c *gin.Context) {
	var req RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	activities, err := h.recommender.FetchBatch(c.Request.Context(), *req.EnergyLevel, req.Location)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": newActivityResponses(activities),
		"total":      len(activities),
	})
}
