package spark

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bcnelson/spark/pkg/models"
)

type memActivityRepo struct {
	mu        sync.Mutex
	items     map[int64]*models.Activity
	nextID    int64
	writes    int
	insertErr error
	listErr   error
}

func newMemActivityRepo() *memActivityRepo {
	return &memActivityRepo{items: make(map[int64]*models.Activity)}
}

func clone(a *models.Activity) *models.Activity {
	c := *a
	c.Tasks = append([]models.Task{}, a.Tasks...)
	return &c
}

func (r *memActivityRepo) Insert(ctx context.Context, a *models.Activity) error {
	return r.InsertBatch(ctx, []*models.Activity{a})
}

func (r *memActivityRepo) InsertBatch(ctx context.Context, activities []*models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, a := range activities {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	for _, a := range activities {
		r.nextID++
		a.ID = r.nextID
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now()
		}
		r.items[a.ID] = clone(a)
		r.writes++
	}
	return nil
}

func (r *memActivityRepo) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, models.NotFound("activity %d not found", id)
	}
	return clone(a), nil
}

func (r *memActivityRepo) ListLiked(ctx context.Context, status models.ActivityStatus) ([]models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Activity
	for _, a := range r.items {
		if a.SwipeStatus != models.SwipeLiked {
			continue
		}
		if status != models.StatusNone && a.Status != status {
			continue
		}
		out = append(out, *clone(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memActivityRepo) ListBySwipeStatus(ctx context.Context, swipe models.SwipeStatus) ([]models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Activity
	for _, a := range r.items {
		if a.SwipeStatus == swipe {
			out = append(out, *clone(a))
		}
	}
	sortKey := func(a models.Activity) time.Time {
		if a.GeneratedAt != nil {
			return *a.GeneratedAt
		}
		return a.CreatedAt
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := sortKey(out[i]), sortKey(out[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memActivityRepo) update(a *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return models.NotFound("activity %d not found", a.ID)
	}
	r.items[a.ID] = clone(a)
	r.writes++
	return nil
}

func (r *memActivityRepo) UpdateStatus(ctx context.Context, a *models.Activity) error {
	return r.update(a)
}

func (r *memActivityRepo) UpdateSwipe(ctx context.Context, a *models.Activity) error {
	return r.update(a)
}

func (r *memActivityRepo) UpdateTask(ctx context.Context, activityID int64, task models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[activityID]
	if !ok {
		return models.NotFound("activity %d not found", activityID)
	}
	for i := range a.Tasks {
		if a.Tasks[i].ID == task.ID {
			a.Tasks[i].Completed = task.Completed
			r.writes++
			return nil
		}
	}
	return models.NotFound("task %d not found", task.ID)
}

func (r *memActivityRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return models.NotFound("activity %d not found", id)
	}
	delete(r.items, id)
	r.writes++
	return nil
}

func (r *memActivityRepo) CountByState(ctx context.Context) (map[models.LifecycleState]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.LifecycleState]int)
	for _, a := range r.items {
		counts[a.State()]++
	}
	return counts, nil
}

func (r *memActivityRepo) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

type feedbackKey struct {
	activityID int64
	kind       models.FeedbackKind
}

type memFeedbackRepo struct {
	items  map[feedbackKey]models.Feedback
	writes int
}

func newMemFeedbackRepo() *memFeedbackRepo {
	return &memFeedbackRepo{items: make(map[feedbackKey]models.Feedback)}
}

func (r *memFeedbackRepo) Upsert(ctx context.Context, fb *models.Feedback) error {
	key := feedbackKey{fb.ActivityID, fb.Kind}
	if existing, ok := r.items[key]; ok {
		fb.ID = existing.ID
	}
	r.items[key] = *fb
	r.writes++
	return nil
}

func (r *memFeedbackRepo) Get(ctx context.Context, activityID int64, kind models.FeedbackKind) (*models.Feedback, error) {
	fb, ok := r.items[feedbackKey{activityID, kind}]
	if !ok {
		return nil, models.NotFound("no %s feedback for activity %d", kind, activityID)
	}
	return &fb, nil
}

type memPreferencesRepo struct {
	prefs *models.UserPreferences
	saves int
}

func (r *memPreferencesRepo) Get(ctx context.Context) (models.UserPreferences, error) {
	if r.prefs == nil {
		return models.DefaultPreferences(), nil
	}
	return *r.prefs, nil
}

func (r *memPreferencesRepo) Save(ctx context.Context, p *models.UserPreferences) error {
	saved := *p
	r.prefs = &saved
	r.saves++
	return nil
}

type countingObserver struct {
	batches  map[BatchSource]int
	accepted int
	rejected int
	failures int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{batches: make(map[BatchSource]int)}
}

func (o *countingObserver) BatchServed(source BatchSource, size int) { o.batches[source]++ }

func (o *countingObserver) CandidateScreened(accepted bool) {
	if accepted {
		o.accepted++
	} else {
		o.rejected++
	}
}

func (o *countingObserver) GenerationFailed() { o.failures++ }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedActivity(title string, category models.Category, distance float64, duration string) *models.Activity {
	return &models.Activity{
		Title:       title,
		Category:    category,
		Description: title + " description",
		Location:    title + " place",
		Address:     "1 Test St",
		Distance:    distance,
		Duration:    duration,
		Why:         "because",
		SwipeStatus: models.SwipeUnswiped,
		Tasks:       models.NewTasks([]string{"step one", "step two"}),
	}
}
