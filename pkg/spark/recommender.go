package spark

import (
	"context"
	"fmt"
	"time"

	"github.com/bcnelson/spark/internal/generator"
	"github.com/bcnelson/spark/pkg/models"
	"go.uber.org/zap"
)

type BatchSource string

const (
	SourceStore     BatchSource = "store"
	SourceGenerator BatchSource = "generator"
)

// Observer is told about every batch outcome.
type Observer interface {
	BatchServed(source BatchSource, size int)
	CandidateScreened(accepted bool)
	GenerationFailed()
}

type nopObserver struct{}

func (nopObserver) BatchServed(BatchSource, int) {}
func (nopObserver) CandidateScreened(bool)       {}
func (nopObserver) GenerationFailed()            {}

type RecommenderConfig struct {
	BatchSize    int  `yaml:"batch_size"`
	PersistTasks bool `yaml:"persist_tasks"`
}

// Recommender serves the swipe deck: stored unswiped activities first, a
// freshly generated batch only when none are left.
type Recommender struct {
	activities ActivityRepository
	generator  generator.Generator
	config     RecommenderConfig
	observer   Observer
	logger     *zap.Logger
	clock      func() time.Time
}

func NewRecommender(activities ActivityRepository, gen generator.Generator, config RecommenderConfig, observer Observer, logger *zap.Logger) *Recommender {
	if config.BatchSize <= 0 {
		config.BatchSize = generator.DefaultBatchSize
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{
		activities: activities,
		generator:  gen,
		config:     config,
		observer:   observer,
		logger:     logger.Named("recommender"),
		clock:      time.Now,
	}
}

// FetchBatch returns the unswiped activities in generation order. When there
// are none it asks the generator once and stores the candidates that pass
// validation.
func (r *Recommender) FetchBatch(ctx context.Context, energyLevel int, location string) ([]models.Activity, error) {
	if energyLevel < 0 || energyLevel > models.MaxEnergy {
		return nil, models.Invalid("energy level must be between 0 and %d, got %d", models.MaxEnergy, energyLevel)
	}

	unswiped, err := r.activities.ListBySwipeStatus(ctx, models.SwipeUnswiped)
	if err != nil {
		return nil, fmt.Errorf("failed to list unswiped activities: %w", err)
	}
	if len(unswiped) > 0 {
		r.observer.BatchServed(SourceStore, len(unswiped))
		return unswiped, nil
	}

	candidates, err := r.generator.Generate(ctx, generator.Request{
		EnergyLevel: energyLevel,
		Location:    location,
		Count:       r.config.BatchSize,
	})
	if err != nil {
		r.observer.GenerationFailed()
		r.logger.Warn("generation failed", zap.Error(err))
		return nil, models.WrapError(models.KindGenerationFailed, "activity generation failed", err)
	}

	now := r.clock()
	accepted := make([]*models.Activity, 0, len(candidates))
	for i, candidate := range candidates {
		verdict := generator.Validate(candidate)
		r.observer.CandidateScreened(verdict.Accepted())
		if !verdict.Accepted() {
			r.logger.Warn("rejected generated candidate",
				zap.Int("index", i),
				zap.String("kind", string(models.KindSchemaMismatch)),
				zap.String("reason", verdict.Reason))
			continue
		}

		activity := verdict.Activity
		activity.IsGenerated = true
		activity.GeneratedAt = &now
		activity.CreatedAt = now
		activity.UpdatedAt = now
		if !r.config.PersistTasks {
			activity.Tasks = []models.Task{}
		}
		accepted = append(accepted, activity)
	}

	if len(accepted) == 0 {
		r.observer.GenerationFailed()
		return nil, models.NewError(models.KindGenerationFailed, "none of the %d generated candidates were valid", len(candidates))
	}

	if err := r.activities.InsertBatch(ctx, accepted); err != nil {
		return nil, fmt.Errorf("failed to store generated activities: %w", err)
	}

	r.logger.Info("generated new batch",
		zap.Int("accepted", len(accepted)),
		zap.Int("rejected", len(candidates)-len(accepted)),
		zap.Int("energy_level", energyLevel),
		zap.String("location", location))
	r.observer.BatchServed(SourceGenerator, len(accepted))

	batch := make([]models.Activity, 0, len(accepted))
	for _, a := range accepted {
		batch = append(batch, *a)
	}
	return batch, nil
}
