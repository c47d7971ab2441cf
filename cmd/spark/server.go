package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bcnelson/spark/internal/api"
	"github.com/bcnelson/spark/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServeCommand(args []string) {
	if isHelp(args) {
		fmt.Printf(`Start the Spark API Server

USAGE:
    spark serve [OPTIONS]

DESCRIPTION:
    Starts the HTTP API server. Without a generator API key the server
    serves the built-in activity deck.

OPTIONS:
    --port <port>       Server port (default: from config, usually 8080)
    --host <host>       Server host (default: from config, usually 127.0.0.1)
    --dev               Development mode (gin debug output, debug logging)
    --help, -h          Show this help

EXAMPLES:
    spark serve
    spark serve --port 3000
    spark serve --host 0.0.0.0 --port 8080

ENDPOINTS:
    GET   /health                                 Health check
    GET   /metrics                                Prometheus metrics
    GET   /api/v1/catalog                         Categories and interests
    POST  /api/v1/recommendations                 Next swipe deck
    GET   /api/v1/activities                      Liked activities, filtered
    POST  /api/v1/activities/:id/swipe            Like or dislike
    POST  /api/v1/activities/:id/start            Start an activity
    POST  /api/v1/activities/:id/complete         Complete an activity
    POST  /api/v1/activities/:id/feedback         Submit feedback
    GET   /api/v1/preferences                     Show preferences
    PATCH /api/v1/preferences                     Update preferences
    GET   /api/v1/stats                           Activity statistics
`)
		return
	}

	if err := executeServe(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func executeServe(args []string) error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	devMode := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--port":
			if i+1 < len(args) {
				p, err := strconv.Atoi(args[i+1])
				if err != nil {
					return fmt.Errorf("invalid port: %s", args[i+1])
				}
				config.Server.Port = p
				i++
			}
		case "--host":
			if i+1 < len(args) {
				config.Server.Host = args[i+1]
				i++
			}
		case "--dev":
			devMode = true
		}
	}

	if devMode {
		gin.SetMode(gin.DebugMode)
		config.Logging.Level = "debug"
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	a, err := newApp(context.Background(), config, collector)
	if err != nil {
		return err
	}
	defer a.Close()

	router, err := api.NewRouter(api.RouterConfig{
		Activities:  a.activities,
		Ledger:      a.ledger,
		Recommender: a.recommender,
		Preferences: a.preferences,
		Health:      a.db,
		Metrics:     collector,
		Logger:      a.logger,
		Version:     Version,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// Generation can take as long as the upstream timeout.
		WriteTimeout: config.Generator.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("database", string(a.db.Driver())),
			zap.String("version", Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		a.logger.Info("server shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Info("server shutdown complete")
	return nil
}
