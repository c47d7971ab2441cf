package spark

import (
	"context"
	"fmt"
	"time"

	"github.com/bcnelson/spark/pkg/models"
	"go.uber.org/zap"
)

// Ledger records swipe decisions and feedback against activities.
type Ledger struct {
	activities ActivityRepository
	feedback   FeedbackRepository
	logger     *zap.Logger
	clock      func() time.Time
}

func NewLedger(activities ActivityRepository, feedback FeedbackRepository, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		activities: activities,
		feedback:   feedback,
		logger:     logger.Named("ledger"),
		clock:      time.Now,
	}
}

// RecordSwipe applies a like or dislike. Repeating the current decision is a
// no-op; the opposite decision overwrites the earlier one.
func (l *Ledger) RecordSwipe(ctx context.Context, id int64, liked bool) (*models.Activity, error) {
	activity, err := l.activities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	previous := activity.SwipeStatus
	if !activity.Swipe(liked, l.clock()) {
		return activity, nil
	}

	if err := l.activities.UpdateSwipe(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to record swipe: %w", err)
	}

	l.logger.Info("swipe recorded",
		zap.Int64("activity_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(activity.SwipeStatus)))
	return activity, nil
}

type FeedbackInput struct {
	ActivityID int64               `json:"activity_id"`
	Kind       models.FeedbackKind `json:"kind"`
	Polarity   models.Polarity     `json:"polarity"`
	Enjoyment  *int                `json:"enjoyment"`
	Reflection string              `json:"reflection"`
}

// SubmitFeedback stores feedback for an activity, replacing an earlier
// submission of the same kind.
func (l *Ledger) SubmitFeedback(ctx context.Context, input FeedbackInput) (*models.Feedback, error) {
	if input.Kind == "" {
		input.Kind = models.FeedbackActivity
	}

	if _, err := l.activities.GetByID(ctx, input.ActivityID); err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	fb, err := models.NewFeedback(input.ActivityID, input.Kind, input.Polarity, input.Enjoyment, input.Reflection, l.clock())
	if err != nil {
		return nil, err
	}

	if err := l.feedback.Upsert(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	l.logger.Info("feedback submitted",
		zap.Int64("activity_id", fb.ActivityID),
		zap.String("kind", string(fb.Kind)),
		zap.String("polarity", string(fb.Polarity)))
	return fb, nil
}

func (l *Ledger) GetFeedback(ctx context.Context, activityID int64, kind models.FeedbackKind) (*models.Feedback, error) {
	if kind == "" {
		kind = models.FeedbackActivity
	}
	fb, err := l.feedback.Get(ctx, activityID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return fb, nil
}

// SwipeHistory lists the ids of every swiped activity by direction.
type SwipeHistory struct {
	Liked    []int64 `json:"liked"`
	Disliked []int64 `json:"disliked"`
}

func (l *Ledger) History(ctx context.Context) (*SwipeHistory, error) {
	liked, err := l.activities.ListBySwipeStatus(ctx, models.SwipeLiked)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked activities: %w", err)
	}
	disliked, err := l.activities.ListBySwipeStatus(ctx, models.SwipeDisliked)
	if err != nil {
		return nil, fmt.Errorf("failed to list disliked activities: %w", err)
	}

	history := &SwipeHistory{Liked: make([]int64, 0, len(liked)), Disliked: make([]int64, 0, len(disliked))}
	for _, a := range liked {
		history.Liked = append(history.Liked, a.ID)
	}
	for _, a := range disliked {
		history.Disliked = append(history.Disliked, a.ID)
	}
	return history, nil
}
