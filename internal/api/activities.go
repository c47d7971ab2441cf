package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/bcnelson/spark/pkg/filters"
	"github.com/bcnelson/spark/pkg/models"
	"github.com/bcnelson/spark/pkg/spark"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ActivityService interface {
	List(ctx context.Context, config filters.Config) (*spark.ActivityList, error)
	Get(ctx context.Context, id int64) (*models.Activity, error)
	Explain(ctx context.Context, id int64, config filters.Config) (*filters.Explanation, error)
	Start(ctx context.Context, id int64) (*models.Activity, error)
	Complete(ctx context.Context, id int64) (*models.Activity, error)
	Transition(ctx context.Context, id int64, status models.ActivityStatus) (*models.Activity, error)
	ToggleTask(ctx context.Context, id int64, taskID int) (*models.Activity, error)
	Delete(ctx context.Context, id int64) error
}

type Ledger interface {
	RecordSwipe(ctx context.Context, id int64, liked bool) (*models.Activity, error)
	SubmitFeedback(ctx context.Context, input spark.FeedbackInput) (*models.Feedback, error)
	GetFeedback(ctx context.Context, activityID int64, kind models.FeedbackKind) (*models.Feedback, error)
	History(ctx context.Context) (*spark.SwipeHistory, error)
}

// FilterDefaults seeds filter configs with the user's saved choices.
type FilterDefaults interface {
	ApplyDefaults(ctx context.Context, config filters.Config) (filters.Config, error)
}

type ActivityHandler struct {
	activities ActivityService
	ledger     Ledger
	defaults   FilterDefaults
	logger     *zap.Logger
}

func NewActivityHandler(activities ActivityService, ledger Ledger, defaults FilterDefaults, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		ledger:     ledger,
		defaults:   defaults,
		logger:     logger,
	}
}

// filterConfig parses the filter query. Without a category parameter the
// user's preferred categories apply.
func (h *ActivityHandler) filterConfig(c *gin.Context) (filters.Config, error) {
	config, err := filters.ParseConfig(c.Request.URL.Query())
	if err != nil {
		return filters.Config{}, err
	}
	if h.defaults == nil {
		return config, nil
	}
	return h.defaults.ApplyDefaults(c.Request.Context(), config)
}

// ActivityResponse adds the derived lifecycle fields clients render from.
type ActivityResponse struct {
	*models.Activity
	State          models.LifecycleState `json:"state"`
	HasDirections  bool                  `json:"has_directions"`
	CompletedTasks int                   `json:"completed_tasks"`
}

func newActivityResponse(activity *models.Activity) ActivityResponse {
	return ActivityResponse{
		Activity:       activity,
		State:          activity.State(),
		HasDirections:  activity.HasDirections(),
		CompletedTasks: activity.CompletedTaskCount(),
	}
}

func newActivityResponses(activities []models.Activity) []ActivityResponse {
	out := make([]ActivityResponse, len(activities))
	for i := range activities {
		out[i] = newActivityResponse(&activities[i])
	}
	return out
}

type SwipeRequest struct {
	Liked *bool `json:"liked" binding:"required"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required,activity_status"`
}

type FeedbackRequest struct {
	Kind       string `json:"kind" binding:"omitempty,feedback_kind"`
	Polarity   string `json:"polarity" binding:"required,polarity"`
	Enjoyment  *int   `json:"enjoyment" binding:"omitempty,min=1,max=5"`
	Reflection string `json:"reflection" binding:"max=2000"`
}

func (h *ActivityHandler) ListActivities(c *gin.Context) {
	config, err := h.filterConfig(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	list, err := h.activities.List(c.Request.Context(), config)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities":   newActivityResponses(list.Activities),
		"total":        len(list.Activities),
		"filters":      config,
		"filter_stats": list.Stats,
	})
}

func (h *ActivityHandler) GetActivity(c *gin.Context) {
	id, ok := h.activityID(c)
	if !ok {
		return
	}

	activity, err := h.activities.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newActivityResponse(activity))
}

func (h *ActivityHandler) ExplainActivity(c *gin.Context) {
	id, ok := h.activityID(c)
	if !ok {
		return
	}

	config, err := h.filterConfig(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	explanation, err := h.activities.Explain(c.Request.Context(), id, config)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, explanation)
}

func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	id, ok := h.activityID(c)
	if !ok {
		return
	}

	if err := h.activities.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ActivityHandler) Swipe(c *gin.Context) {
	id, ok := h.activityID(c)
	if !ok {
		return
	}

	var req SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	activity, err := h.ledger.RecordSwipe(c.Request.Context(), id, *req.Liked)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newActivityResponse(activity))
}

func (h *ActivityHandler) StartActivity(c *gin.Context) {
	h.transition(c, h.activities.Start)
}

func (h *ActivityHandler) CompleteActivity(c *gin.Context) {
	h.transition(c, h.activities.Complete)
}

func (h *ActivityHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	h.transition(c, func(ctx context.Context, id int64) (*models.Activity, error) {
		return h.activities.Transition(ctx, id, models.ActivityStatus(req.Status))
	})
}

func (h *ActivityHandler) transition(c *gin.Context, move func(context.Context, int64) (*models.Activity, error)) {
	id, ok := h.activityID(c)
	if !ok {
		return
	}

	activity, err := move(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newActivityResponse(activity))
}

func (h *ActivityHandler) ToggleTask(c *gin.Context) {
	id, ok := h.activityID(c)
	if !ok {
		return
	}

	taskID, err := strconv.Atoi(c.Param("taskId"))
	if err != nil {
		respondError(c, h.logger, models.Invalid("invalid task id: %q", c.Param("taskId")))
		return
	}

	activity, err := h.activities.ToggleTask(c.Request.Context(), id, taskID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newActivityResponse(activity))
}

func (h *ActivityHandler) SubmitFeedback(c *gin.Context) {
	id, ok := h.activityID(c)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	// Both were checked by the binding rules.
	kind, _ := models.ParseFeedbackKind(req.Kind)
	polarity, _ := models.ParsePolarity(req.Polarity)

	feedback, err := h.ledger.SubmitFeedback(c.Request.Context(), spark.FeedbackInput{
		ActivityID: id,
		Kind:       kind,
		Polarity:   polarity,
		Enjoyment:  req.Enjoyment,
		Reflection: req.Reflection,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, feedback)
}

func (h *ActivityHandler) GetFeedback(c *gin.Context) {
	id, ok := h.activityID(c)
	if !ok {
		return
	}

	kind, err := models.ParseFeedbackKind(c.Query("kind"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	feedback, err := h.ledger.GetFeedback(c.Request.Context(), id, kind)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}

func (h *ActivityHandler) SwipeHistory(c *gin.Context) {
	history, err := h.ledger.History(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *ActivityHandler) activityID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, h.logger, models.Invalid("invalid activity id: %q", c.Param("id")))
		return 0, false
	}
	return id, true
}
