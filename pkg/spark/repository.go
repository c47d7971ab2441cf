package spark

import (
	"context"

	"github.com/bcnelson/spark/pkg/models"
)

type ActivityRepository interface {
	Insert(ctx context.Context, activity *models.Activity) error
	InsertBatch(ctx context.Context, activities []*models.Activity) error
	GetByID(ctx context.Context, id int64) (*models.Activity, error)
	ListLiked(ctx context.Context, status models.ActivityStatus) ([]models.Activity, error)
	ListBySwipeStatus(ctx context.Context, swipe models.SwipeStatus) ([]models.Activity, error)
	UpdateStatus(ctx context.Context, activity *models.Activity) error
	UpdateSwipe(ctx context.Context, activity *models.Activity) error
	UpdateTask(ctx context.Context, activityID int64, task models.Task) error
	Delete(ctx context.Context, id int64) error
	CountByState(ctx context.Context) (map[models.LifecycleState]int, error)
}

type FeedbackRepository interface {
	Upsert(ctx context.Context, feedback *models.Feedback) error
	Get(ctx context.Context, activityID int64, kind models.FeedbackKind) (*models.Feedback, error)
}

type PreferencesRepository interface {
	Get(ctx context.Context) (models.UserPreferences, error)
	Save(ctx context.Context, prefs *models.UserPreferences) error
}
