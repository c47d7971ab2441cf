package api

import (
	"context"
	"net/http"
	"time"

	"github.com/bcnelson/spark/internal/metrics"
	"github.com/bcnelson/spark/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthChecker reports whether the backing store can serve requests and how
// its connection pool is doing.
type HealthChecker interface {
	Health(ctx context.Context) error
	GetStats() storage.DBStats
}

// RouterConfig carries everything the HTTP surface is wired to.
type RouterConfig struct {
	Activities  ActivityService
	Ledger      Ledger
	Recommender Recommender
	Preferences PreferencesService
	Health      HealthChecker
	Metrics     *metrics.Collector
	Logger      *zap.Logger
	Version     string
}

// NewRouter builds the gin engine serving the JSON API.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")

	router := gin.New()
	router.Use(requestID())
	router.Use(requestLogger(logger))
	router.Use(recovery(logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(corsMiddleware())

	router.GET("/health", healthHandler(cfg.Health, cfg.Version))
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	activityHandler := NewActivityHandler(cfg.Activities, cfg.Ledger, cfg.Preferences, logger)
	recommendationHandler := NewRecommendationHandler(cfg.Recommender, logger)
	preferencesHandler := NewPreferencesHandler(cfg.Preferences, logger)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/catalog", catalogHandler)

		activities := v1.Group("/activities")
		{
			activities.GET("", activityHandler.ListActivities)
			activities.GET("/:id", activityHandler.GetActivity)
			activities.DELETE("/:id", activityHandler.DeleteActivity)
			activities.GET("/:id/explain", activityHandler.ExplainActivity)
			activities.POST("/:id/swipe", activityHandler.Swipe)
			activities.POST("/:id/start", activityHandler.StartActivity)
			activities.POST("/:id/complete", activityHandler.CompleteActivity)
			activities.PATCH("/:id/status", activityHandler.UpdateStatus)
			activities.POST("/:id/tasks/:taskId/toggle", activityHandler.ToggleTask)
			activities.POST("/:id/feedback", activityHandler.SubmitFeedback)
			activities.GET("/:id/feedback", activityHandler.GetFeedback)
		}

		v1.GET("/swipes", activityHandler.SwipeHistory)
		v1.POST("/recommendations", recommendationHandler.FetchBatch)
		v1.GET("/preferences", preferencesHandler.GetPreferences)
		v1.PATCH("/preferences", preferencesHandler.UpdatePreferences)
		v1.GET("/stats", preferencesHandler.GetStats)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Endpoint not found",
			Code:  "NOT_FOUND",
			Details: gin.H{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router, nil
}

func healthHandler(checker HealthChecker, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"service":   "spark",
			"version":   version,
		}
		if checker != nil {
			body["database"] = checker.GetStats()
			if err := checker.Health(c.Request.Context()); err != nil {
				body["status"] = "unhealthy"
				body["error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
