package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bcnelson/spark/pkg/models"
)

// FeedbackRepository stores at most one feedback record per activity and kind.
type FeedbackRepository struct {
	db *DB
}

func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Upsert writes the feedback, replacing any earlier submission of the same
// kind for the activity. The stored record keeps its original ID.
func (r *FeedbackRepository) Upsert(ctx context.Context, fb *models.Feedback) error {
	if err := fb.Validate(); err != nil {
		return fmt.Errorf("feedback validation failed: %w", err)
	}

	var enjoyment interface{}
	if fb.Enjoyment != nil {
		enjoyment = *fb.Enjoyment
	}

	query := r.db.Rebind(`
		INSERT INTO feedback (
			id, activity_id, kind, polarity, enjoyment, reflection, submitted, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (activity_id, kind) DO UPDATE SET
			polarity = excluded.polarity,
			enjoyment = excluded.enjoyment,
			reflection = excluded.reflection,
			submitted = excluded.submitted,
			submitted_at = excluded.submitted_at
		RETURNING id`)

	err := r.db.QueryRowContext(ctx, query,
		fb.ID,
		fb.ActivityID,
		string(fb.Kind),
		string(fb.Polarity),
		enjoyment,
		fb.Reflection,
		fb.Submitted,
		fb.SubmittedAt.UTC(),
	).Scan(&fb.ID)
	if err != nil {
		return storeError("upsert feedback", err)
	}
	return nil
}

// Get returns the feedback of the given kind for an activity.
func (r *FeedbackRepository) Get(ctx context.Context, activityID int64, kind models.FeedbackKind) (*models.Feedback, error) {
	query := r.db.Rebind(`
		SELECT id, activity_id, kind, polarity, enjoyment, reflection, submitted, submitted_at
		FROM feedback
		WHERE activity_id = ? AND kind = ?`)

	var (
		fb             models.Feedback
		kindStr, polar string
		enjoyment      sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, activityID, string(kind)).Scan(
		&fb.ID,
		&fb.ActivityID,
		&kindStr,
		&polar,
		&enjoyment,
		&fb.Reflection,
		&fb.Submitted,
		&fb.SubmittedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("no %s feedback for activity %d", kind, activityID)
	}
	if err != nil {
		return nil, storeError("get feedback", err)
	}

	fb.Kind = models.FeedbackKind(kindStr)
	fb.Polarity = models.Polarity(polar)
	if enjoyment.Valid {
		v := int(enjoyment.Int64)
		fb.Enjoyment = &v
	}
	return &fb, nil
}
