package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"veo-console/internal/api"
	"veo-console/internal/backend"
	"veo-console/internal/config"
	"veo-console/internal/jobs"
	"veo-console/internal/logging"
	"veo-console/internal/poller"
	"veo-console/internal/storage"
	"veo-console/internal/validation"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.Load()
	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	if envErr != nil {
		logger.Debug().Err(envErr).Msg(".env file not loaded")
	}

	// Initialize result storage
	storageBackend, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	results := storage.NewResultService(storageBackend)

	// Generation backend
	client := backend.NewClient(backend.Config{
		BaseURL:      cfg.Backend.URL,
		Timeout:      cfg.Backend.Timeout,
		FastModel:    cfg.Backend.FastModel,
		QualityModel: cfg.Backend.QualityModel,
	})

	validationConfig := validation.DefaultValidationConfig()
	validationConfig.MaxImageSize = cfg.MaxImageSize
	validationConfig.MaxVideoSize = cfg.MaxVideoSize
	validator := validation.NewAPIValidator(validationConfig)

	// Initialize services
	pool := poller.NewPool(client, cfg.PollInterval, logger)
	events := jobs.NewEventBroker(0, logger)
	jobService := jobs.NewJobServiceImpl(jobs.NewJobRepository(), client, validator, pool, events, logger)

	// Start cleanup service
	cleanupService := jobs.NewCleanupService(jobService, cfg.CleanupInterval, cfg.SessionIdleTimeout, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cleanupService.Start(ctx)

	router := api.SetupRouter(api.RouterConfig{
		JobService:        jobService,
		Videos:            client,
		Results:           results,
		Validator:         validator,
		Logger:            logger,
		PollInterval:      cfg.PollInterval,
		RequestsPerMinute: cfg.RequestsPerMinute,
		AllowedOrigin:     cfg.AllowedOrigin,
		Environment:       cfg.Environment,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("port", cfg.Port).
		Str("backend", cfg.Backend.URL).
		Dur("poll_interval", cfg.PollInterval).
		Str("storage", cfg.Storage.Type).
		Msg("Starting veo-console")
	if cfg.Storage.Type == "filesystem" {
		logger.Info().Str("path", cfg.Storage.BasePath).Msg("Storage path")
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Fatal().Err(err).Msg("Server failed to start")
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	// Graceful shutdown
	cleanupService.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	jobService.Shutdown()
	logger.Info().Msg("Server shutdown complete")
}
