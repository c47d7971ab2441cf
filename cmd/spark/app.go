package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bcnelson/spark/internal/generator"
	"github.com/bcnelson/spark/internal/logging"
	"github.com/bcnelson/spark/internal/storage"
	"github.com/bcnelson/spark/pkg/spark"
	"go.uber.org/zap"
)

// app holds the wired services shared by the CLI commands and the server.
type app struct {
	config      *Config
	logger      *zap.Logger
	db          *storage.DB
	activities  *spark.ActivityService
	ledger      *spark.Ledger
	recommender *spark.Recommender
	preferences *spark.PreferencesService
}

// newApp opens the store, applies pending migrations and wires the services.
// observer may be nil.
func newApp(ctx context.Context, config *Config, observer spark.Observer) (*app, error) {
	if globalConfig.Verbose {
		config.Logging.Level = "debug"
	}
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(config.Logging)
	if err != nil {
		return nil, err
	}

	db, err := storage.NewDB(config.Database.storageConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	applied, err := storage.NewMigrator(db).Up(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	for _, m := range applied {
		logger.Info("applied migration", zap.Int("id", m.ID), zap.String("name", m.Name))
	}

	gen, err := newGenerator(config.Generator, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	activityRepo := storage.NewActivityRepository(db)
	feedbackRepo := storage.NewFeedbackRepository(db)
	prefsRepo := storage.NewPreferencesRepository(db)

	return &app{
		config:      config,
		logger:      logger,
		db:          db,
		activities:  spark.NewActivityService(activityRepo, logger),
		ledger:      spark.NewLedger(activityRepo, feedbackRepo, logger),
		recommender: spark.NewRecommender(activityRepo, gen, config.Recommendations, observer, logger),
		preferences: spark.NewPreferencesService(prefsRepo, activityRepo, logger),
	}, nil
}

// newGenerator falls back to the built-in deck when no API key is configured.
func newGenerator(config generator.Config, logger *zap.Logger) (generator.Generator, error) {
	if config.APIKey == "" {
		logger.Info("no generator API key configured, serving the built-in activity deck")
		return generator.NewStaticGenerator(), nil
	}
	return generator.NewOpenAIGenerator(config, logger)
}

func (a *app) Close() {
	a.logger.Sync()
	a.db.Close()
}

// mustApp loads config and wires the app, exiting on failure.
func mustApp() *app {
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Keep one-shot commands quiet on the terminal unless asked otherwise.
	if config.Logging.Path == "" && !globalConfig.Verbose {
		config.Logging.Level = "warn"
		config.Logging.Encoding = "console"
	}

	a, err := newApp(context.Background(), config, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return a
}
