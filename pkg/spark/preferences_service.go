package spark

import (
	"context"
	"fmt"
	"time"

	"github.com/bcnelson/spark/pkg/filters"
	"github.com/bcnelson/spark/pkg/models"
	"go.uber.org/zap"
)

type PreferencesService struct {
	prefs      PreferencesRepository
	activities ActivityRepository
	logger     *zap.Logger
	clock      func() time.Time
}

func NewPreferencesService(prefs PreferencesRepository, activities ActivityRepository, logger *zap.Logger) *PreferencesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferencesService{
		prefs:      prefs,
		activities: activities,
		logger:     logger.Named("preferences"),
		clock:      time.Now,
	}
}

func (s *PreferencesService) Get(ctx context.Context) (models.UserPreferences, error) {
	prefs, err := s.prefs.Get(ctx)
	if err != nil {
		return models.UserPreferences{}, fmt.Errorf("failed to get preferences: %w", err)
	}
	return prefs, nil
}

// ApplyDefaults fills the category restriction of a filter config from the
// user's selected categories when the caller did not name any.
func (s *PreferencesService) ApplyDefaults(ctx context.Context, config filters.Config) (filters.Config, error) {
	if len(config.Categories) > 0 {
		return config, nil
	}
	prefs, err := s.Get(ctx)
	if err != nil {
		return filters.Config{}, err
	}
	config.Categories = filters.FromPreferences(prefs).Categories
	return config, nil
}

// Update applies a partial update. Nothing is saved when the result is invalid.
func (s *PreferencesService) Update(ctx context.Context, update models.PreferencesUpdate) (models.UserPreferences, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return models.UserPreferences{}, err
	}

	next := current.Apply(update)
	if err := next.Validate(); err != nil {
		return models.UserPreferences{}, err
	}
	next.UpdatedAt = s.clock()

	if err := s.prefs.Save(ctx, &next); err != nil {
		return models.UserPreferences{}, fmt.Errorf("failed to save preferences: %w", err)
	}

	s.logger.Info("preferences updated",
		zap.Int("energy_preference", next.EnergyPreference),
		zap.Float64("max_distance", next.MaxDistance),
		zap.Strings("categories", next.Categories))
	return next, nil
}

// Stats derives the profile counters from the activity table.
func (s *PreferencesService) Stats(ctx context.Context) (models.UserStats, error) {
	counts, err := s.activities.CountByState(ctx)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("failed to count activities: %w", err)
	}

	completed, err := s.activities.ListLiked(ctx, models.StatusCompleted)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("failed to list completed activities: %w", err)
	}

	stats := models.UserStats{
		ActivitiesCompleted: counts[models.StateCompleted],
		Planned:             counts[models.StatePlanned],
		InProgress:          counts[models.StateInProgress],
		Disliked:            counts[models.StateDisliked],
	}
	stats.Liked = stats.Planned + stats.InProgress + stats.ActivitiesCompleted

	perCategory := make(map[models.Category]int)
	for _, a := range completed {
		perCategory[a.Category]++
		minutes, err := a.DurationMinutes()
		if err != nil {
			s.logger.Warn("skipping malformed duration in stats",
				zap.Int64("activity_id", a.ID),
				zap.String("duration", a.Duration))
			continue
		}
		stats.TotalMinutes += minutes
	}

	best := 0
	for _, c := range models.Categories {
		if perCategory[c] > best {
			best = perCategory[c]
			stats.FavoriteCategory = c.ID()
		}
	}
	return stats, nil
}
