package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bcnelson/spark/pkg/models"
)

// ActivityRepository handles activity and checklist persistence
type ActivityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const activityColumns = `
	id, title, category, description, image, location, address,
	latitude, longitude, distance, duration, why, swipe_status, status,
	is_generated, generated_at, selected_at, swiped_at, completed_at,
	created_at, updated_at`

// Insert stores a new activity with its tasks and assigns its ID.
func (r *ActivityRepository) Insert(ctx context.Context, activity *models.Activity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin insert", err)
	}
	defer tx.Rollback()

	if err := r.insert(ctx, tx, activity); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeError("commit insert", err)
	}
	return nil
}

// InsertBatch stores every activity in a single transaction. A failure leaves
// nothing persisted.
func (r *ActivityRepository) InsertBatch(ctx context.Context, activities []*models.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin batch insert", err)
	}
	defer tx.Rollback()

	for _, activity := range activities {
		if err := r.insert(ctx, tx, activity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit batch insert", err)
	}
	return nil
}

func (r *ActivityRepository) insert(ctx context.Context, q queryer, activity *models.Activity) error {
	if err := activity.Validate(); err != nil {
		return fmt.Errorf("activity validation failed: %w", err)
	}

	now := time.Now().UTC()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	if activity.UpdatedAt.IsZero() {
		activity.UpdatedAt = activity.CreatedAt
	}
	if activity.SwipeStatus == "" {
		activity.SwipeStatus = models.SwipeUnswiped
	}

	lat, lng := coordinateArgs(activity.Coordinates)
	query := r.db.Rebind(`
		INSERT INTO activities (
			title, category, description, image, location, address,
			latitude, longitude, distance, duration, why, swipe_status, status,
			is_generated, generated_at, selected_at, swiped_at, completed_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := q.QueryRowContext(ctx, query,
		activity.Title,
		string(activity.Category),
		activity.Description,
		activity.Image,
		activity.Location,
		activity.Address,
		lat,
		lng,
		activity.Distance,
		activity.Duration,
		activity.Why,
		string(activity.SwipeStatus),
		statusArg(activity.Status),
		activity.IsGenerated,
		timeArg(activity.GeneratedAt),
		timeArg(activity.SelectedAt),
		timeArg(activity.SwipedAt),
		timeArg(activity.CompletedAt),
		activity.CreatedAt.UTC(),
		activity.UpdatedAt.UTC(),
	).Scan(&activity.ID)
	if err != nil {
		return storeError("insert activity", err)
	}

	taskQuery := r.db.Rebind(`INSERT INTO activity_tasks (activity_id, id, text, completed) VALUES (?, ?, ?, ?)`)
	for _, task := range activity.Tasks {
		if _, err := q.ExecContext(ctx, taskQuery, activity.ID, task.ID, task.Text, task.Completed); err != nil {
			return storeError("insert activity task", err)
		}
	}
	return nil
}

// GetByID retrieves an activity and its tasks
func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	query := r.db.Rebind(`SELECT ` + activityColumns + ` FROM activities WHERE id = ?`)

	activity, err := scanActivity(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if models.IsKind(err, models.KindNotFound) {
			return nil, models.NotFound("activity %d not found", id)
		}
		return nil, err
	}

	activities := []*models.Activity{activity}
	if err := r.loadTasks(ctx, activities); err != nil {
		return nil, err
	}
	return activity, nil
}

// ListLiked returns liked activities, newest first. An empty status returns
// every liked activity.
func (r *ActivityRepository) ListLiked(ctx context.Context, status models.ActivityStatus) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE swipe_status = ?`
	args := []interface{}{string(models.SwipeLiked)}
	if status != models.StatusNone {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return r.list(ctx, query, args...)
}

// ListBySwipeStatus returns activities in the order they were generated.
func (r *ActivityRepository) ListBySwipeStatus(ctx context.Context, swipe models.SwipeStatus) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities
		WHERE swipe_status = ?
		ORDER BY COALESCE(generated_at, created_at) ASC, id ASC`
	return r.list(ctx, query, string(swipe))
}

func (r *ActivityRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, storeError("list activities", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate activities", err)
	}

	if err := r.loadTasks(ctx, activities); err != nil {
		return nil, err
	}

	out := make([]models.Activity, 0, len(activities))
	for _, a := range activities {
		out = append(out, *a)
	}
	return out, nil
}

// loadTasks fills the task lists of the given activities with one query.
func (r *ActivityRepository) loadTasks(ctx context.Context, activities []*models.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Activity, len(activities))
	placeholders := make([]string, 0, len(activities))
	args := make([]interface{}, 0, len(activities))
	for _, a := range activities {
		a.Tasks = []models.Task{}
		byID[a.ID] = a
		placeholders = append(placeholders, "?")
		args = append(args, a.ID)
	}

	query := r.db.Rebind(fmt.Sprintf(`
		SELECT activity_id, id, text, completed
		FROM activity_tasks
		WHERE activity_id IN (%s)
		ORDER BY activity_id, id`, strings.Join(placeholders, ", ")))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return storeError("load activity tasks", err)
	}
	defer rows.Close()

	for rows.Next() {
		var activityID int64
		var task models.Task
		if err := rows.Scan(&activityID, &task.ID, &task.Text, &task.Completed); err != nil {
			return storeError("scan activity task", err)
		}
		if a, ok := byID[activityID]; ok {
			a.Tasks = append(a.Tasks, task)
		}
	}
	if err := rows.Err(); err != nil {
		return storeError("iterate activity tasks", err)
	}
	return nil
}

// UpdateStatus persists the progress columns after Start or Complete.
func (r *ActivityRepository) UpdateStatus(ctx context.Context, activity *models.Activity) error {
	query := r.db.Rebind(`
		UPDATE activities
		SET status = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		statusArg(activity.Status),
		timeArg(activity.CompletedAt),
		activity.UpdatedAt.UTC(),
		activity.ID,
	)
	if err != nil {
		return storeError("update activity status", err)
	}
	return requireRow(result, "activity %d not found", activity.ID)
}

// UpdateSwipe persists the swipe decision together with the lifecycle columns
// it resets.
func (r *ActivityRepository) UpdateSwipe(ctx context.Context, activity *models.Activity) error {
	query := r.db.Rebind(`
		UPDATE activities
		SET swipe_status = ?, status = ?, selected_at = ?, swiped_at = ?,
		    completed_at = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		string(activity.SwipeStatus),
		statusArg(activity.Status),
		timeArg(activity.SelectedAt),
		timeArg(activity.SwipedAt),
		timeArg(activity.CompletedAt),
		activity.UpdatedAt.UTC(),
		activity.ID,
	)
	if err != nil {
		return storeError("update activity swipe", err)
	}
	return requireRow(result, "activity %d not found", activity.ID)
}

// UpdateTask persists a task's completion flag.
func (r *ActivityRepository) UpdateTask(ctx context.Context, activityID int64, task models.Task) error {
	query := r.db.Rebind(`UPDATE activity_tasks SET completed = ? WHERE activity_id = ? AND id = ?`)

	result, err := r.db.ExecContext(ctx, query, task.Completed, activityID, task.ID)
	if err != nil {
		return storeError("update activity task", err)
	}
	return requireRow(result, "task %d not found on activity %d", task.ID, activityID)
}

// Delete removes an activity. Tasks and feedback go with it.
func (r *ActivityRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM activities WHERE id = ?`), id)
	if err != nil {
		return storeError("delete activity", err)
	}
	return requireRow(result, "activity %d not found", id)
}

// CountByState tallies activities per lifecycle state.
func (r *ActivityRepository) CountByState(ctx context.Context) (map[models.LifecycleState]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT swipe_status, COALESCE(status, ''), COUNT(*)
		FROM activities
		GROUP BY swipe_status, COALESCE(status, '')`)
	if err != nil {
		return nil, storeError("count activities", err)
	}
	defer rows.Close()

	counts := make(map[models.LifecycleState]int)
	for rows.Next() {
		var swipe, status string
		var n int
		if err := rows.Scan(&swipe, &status, &n); err != nil {
			return nil, storeError("scan activity count", err)
		}
		a := models.Activity{SwipeStatus: models.SwipeStatus(swipe), Status: models.ActivityStatus(status)}
		counts[a.State()] += n
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate activity counts", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var (
		a                                              models.Activity
		category, swipe                                string
		status                                         sql.NullString
		lat, lng                                       sql.NullFloat64
		generatedAt, selectedAt, swipedAt, completedAt sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.Title,
		&category,
		&a.Description,
		&a.Image,
		&a.Location,
		&a.Address,
		&lat,
		&lng,
		&a.Distance,
		&a.Duration,
		&a.Why,
		&swipe,
		&status,
		&a.IsGenerated,
		&generatedAt,
		&selectedAt,
		&swipedAt,
		&completedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, storeError("scan activity", err)
	}

	a.Category = models.Category(category)
	a.SwipeStatus = models.SwipeStatus(swipe)
	a.Status = models.ActivityStatus(status.String)
	if lat.Valid && lng.Valid {
		a.Coordinates = &models.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	a.GeneratedAt = nullTimePtr(generatedAt)
	a.SelectedAt = nullTimePtr(selectedAt)
	a.SwipedAt = nullTimePtr(swipedAt)
	a.CompletedAt = nullTimePtr(completedAt)
	return &a, nil
}

func requireRow(result sql.Result, format string, args ...interface{}) error {
	n, err := result.RowsAffected()
	if err != nil {
		return storeError("read affected rows", err)
	}
	if n == 0 {
		return models.NotFound(format, args...)
	}
	return nil
}

func statusArg(status models.ActivityStatus) interface{} {
	if status == models.StatusNone {
		return nil
	}
	return string(status)
}

func timeArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func coordinateArgs(c *models.Coordinates) (interface{}, interface{}) {
	if c == nil {
		return nil, nil
	}
	return c.Lat, c.Lng
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
