// Package spark holds the activity lifecycle services: browsing and progressing
// liked activities, recording swipes and feedback, and fetching new
// recommendation batches.
package spark

import (
	"context"
	"fmt"
	"time"

	"github.com/bcnelson/spark/pkg/filters"
	"github.com/bcnelson/spark/pkg/models"
	"go.uber.org/zap"
)

type ActivityService struct {
	activities ActivityRepository
	logger     *zap.Logger
	clock      func() time.Time
}

func NewActivityService(activities ActivityRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		activities: activities,
		logger:     logger.Named("activities"),
		clock:      time.Now,
	}
}

// ActivityList is a filtered view of the liked activities with per-rule counts
// over everything the view was drawn from.
type ActivityList struct {
	Activities []models.Activity `json:"activities"`
	Stats      filters.Stats     `json:"filter_stats"`
}

// List returns the liked activities that pass the filter config, newest first.
func (s *ActivityService) List(ctx context.Context, config filters.Config) (*ActivityList, error) {
	engine, err := filters.NewEngine(config)
	if err != nil {
		return nil, err
	}

	status := models.StatusNone
	if config.Status != "" && config.Status != filters.StatusAll {
		status = models.ActivityStatus(config.Status)
	}

	liked, err := s.activities.ListLiked(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked activities: %w", err)
	}

	visible, err := engine.Filter(liked)
	if err != nil {
		return nil, fmt.Errorf("failed to filter activities: %w", err)
	}
	return &ActivityList{Activities: visible, Stats: engine.Stats(liked)}, nil
}

func (s *ActivityService) Get(ctx context.Context, id int64) (*models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

// Explain reports how each filter rule treats the activity under config.
func (s *ActivityService) Explain(ctx context.Context, id int64, config filters.Config) (*filters.Explanation, error) {
	engine, err := filters.NewEngine(config)
	if err != nil {
		return nil, err
	}

	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	explanation := engine.Explain(*activity)
	return &explanation, nil
}

func (s *ActivityService) Start(ctx context.Context, id int64) (*models.Activity, error) {
	return s.Transition(ctx, id, models.StatusInProgress)
}

func (s *ActivityService) Complete(ctx context.Context, id int64) (*models.Activity, error) {
	return s.Transition(ctx, id, models.StatusCompleted)
}

// Transition moves a liked activity forward. Repeating the current status is
// a no-op and does not touch the store.
func (s *ActivityService) Transition(ctx context.Context, id int64, status models.ActivityStatus) (*models.Activity, error) {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed, err := activity.Transition(status, s.clock())
	if err != nil {
		return nil, err
	}
	if !changed {
		return activity, nil
	}

	if err := s.activities.UpdateStatus(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to update activity status: %w", err)
	}

	s.logger.Info("activity status changed",
		zap.Int64("activity_id", id),
		zap.String("status", string(activity.Status)))
	return activity, nil
}

// ToggleTask flips one checklist step and persists it.
func (s *ActivityService) ToggleTask(ctx context.Context, id int64, taskID int) (*models.Activity, error) {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := activity.ToggleTask(taskID, s.clock()); err != nil {
		return nil, err
	}

	task, _ := activity.FindTask(taskID)
	if err := s.activities.UpdateTask(ctx, id, *task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return activity, nil
}

func (s *ActivityService) Delete(ctx context.Context, id int64) error {
	if err := s.activities.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	s.logger.Info("activity deleted", zap.Int64("activity_id", id))
	return nil
}
