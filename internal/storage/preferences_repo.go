package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bcnelson/spark/pkg/models"
)

// PreferencesRepository keeps the single user's preference row.
type PreferencesRepository struct {
	db *DB
}

func NewPreferencesRepository(db *DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get returns the saved preferences, or the defaults when none were saved.
func (r *PreferencesRepository) Get(ctx context.Context) (models.UserPreferences, error) {
	query := `
		SELECT max_distance, energy_preference, time_preference,
		       notifications_enabled, location_tracking_enabled,
		       interests, categories, updated_at
		FROM user_preferences
		WHERE id = 1`

	var p models.UserPreferences
	var interests, categories string
	err := r.db.QueryRowContext(ctx, query).Scan(
		&p.MaxDistance,
		&p.EnergyPreference,
		&p.TimePreference,
		&p.NotificationsEnabled,
		&p.LocationTrackingEnabled,
		&interests,
		&categories,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.DefaultPreferences(), nil
	}
	if err != nil {
		return models.UserPreferences{}, storeError("get preferences", err)
	}

	if err := json.Unmarshal([]byte(interests), &p.Interests); err != nil {
		return models.UserPreferences{}, fmt.Errorf("failed to decode interests: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
		return models.UserPreferences{}, fmt.Errorf("failed to decode categories: %w", err)
	}
	return p, nil
}

// Save replaces the stored preferences.
func (r *PreferencesRepository) Save(ctx context.Context, p *models.UserPreferences) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("preferences validation failed: %w", err)
	}

	interests, err := json.Marshal(nonNil(p.Interests))
	if err != nil {
		return fmt.Errorf("failed to encode interests: %w", err)
	}
	categories, err := json.Marshal(nonNil(p.Categories))
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	query := r.db.Rebind(`
		INSERT INTO user_preferences (
			id, max_distance, energy_preference, time_preference,
			notifications_enabled, location_tracking_enabled,
			interests, categories, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			max_distance = excluded.max_distance,
			energy_preference = excluded.energy_preference,
			time_preference = excluded.time_preference,
			notifications_enabled = excluded.notifications_enabled,
			location_tracking_enabled = excluded.location_tracking_enabled,
			interests = excluded.interests,
			categories = excluded.categories,
			updated_at = excluded.updated_at`)

	_, err = r.db.ExecContext(ctx, query,
		p.MaxDistance,
		p.EnergyPreference,
		p.TimePreference,
		p.NotificationsEnabled,
		p.LocationTrackingEnabled,
		string(interests),
		string(categories),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return storeError("save preferences", err)
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
