// Package main is the entry point for the VentasBI sales forecasting
// service. It ingests raw sales transactions, serves SARIMA forecasts of
// daily sales with confidence intervals, and exposes customer-level
// business-intelligence aggregates over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/config"
	"github.com/hjuarez/ventasbi/internal/database"
	"github.com/hjuarez/ventasbi/internal/jobs"
	"github.com/hjuarez/ventasbi/internal/modules/analytics"
	analyticshandlers "github.com/hjuarez/ventasbi/internal/modules/analytics/handlers"
	"github.com/hjuarez/ventasbi/internal/modules/forecast"
	forecasthandlers "github.com/hjuarez/ventasbi/internal/modules/forecast/handlers"
	"github.com/hjuarez/ventasbi/internal/modules/ingest"
	"github.com/hjuarez/ventasbi/internal/modules/model"
	"github.com/hjuarez/ventasbi/internal/modules/series"
	"github.com/hjuarez/ventasbi/internal/modules/trends"
	"github.com/hjuarez/ventasbi/internal/scheduler"
	"github.com/hjuarez/ventasbi/internal/server"
	"github.com/hjuarez/ventasbi/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger with config level
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting VentasBI")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Wire services
	parser := ingest.NewParser(log)
	repo := ingest.NewRepository(db, log)
	builder := series.NewBuilder(log)
	cache := model.NewCache()

	strategy, err := model.ParseStrategy(cfg.SearchStrategy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid search strategy")
	}
	selector := model.NewSelector(model.Config{
		Strategy:   strategy,
		Workers:    cfg.FitWorkers,
		FitTimeout: time.Duration(cfg.FitTimeoutSecs) * time.Second,
	}, cache, log)

	forecastService := forecast.NewService(repo, builder, selector, forecast.Config{
		SeasonalPeriod: cfg.SeasonalPeriod,
		MaxHorizon:     cfg.MaxHorizon,
	}, log)
	analyticsService := analytics.NewService(db, log)
	trendsService := trends.NewService(log)

	// Seed the store from the configured sales file when empty
	if err := seedDataset(cfg, parser, repo, log); err != nil {
		log.Warn().Err(err).Msg("Dataset seed skipped")
	}

	// Initialize scheduler and register the nightly cache-warming job
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	retrain := jobs.NewRetrainJob(forecastService, cfg.DefaultHorizon, log)
	if err := sched.AddJob(cfg.RetrainSchedule, retrain); err != nil {
		log.Fatal().Err(err).Msg("Failed to register retrain job")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:              cfg.Port,
		Log:               log,
		Config:            cfg,
		DevMode:           cfg.DevMode,
		ForecastHandlers:  forecasthandlers.NewHandler(forecastService, cfg.DefaultHorizon, log),
		AnalyticsHandlers: analyticshandlers.NewHandler(analyticsService, log),
		ForecastService:   forecastService,
		TrendsService:     trendsService,
		Parser:            parser,
		Repo:              repo,
		ModelCache:        cache,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// seedDataset ingests the configured sales file on first start, so the
// service is usable before any upload. A populated store or a missing
// seed file are both fine.
func seedDataset(cfg *config.Config, parser *ingest.Parser, repo *ingest.Repository, log zerolog.Logger) error {
	count, err := repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info().Int("transactions", count).Msg("Store already populated, skipping seed")
		return nil
	}

	if _, err := os.Stat(cfg.SalesFilePath); os.IsNotExist(err) {
		log.Info().Str("path", cfg.SalesFilePath).Msg("No seed file, waiting for upload")
		return nil
	}

	txs, err := parser.ParseFile(cfg.SalesFilePath)
	if err != nil {
		return err
	}

	batchID, err := repo.Replace(txs)
	if err != nil {
		return err
	}

	log.Info().
		Str("path", cfg.SalesFilePath).
		Str("batch_id", batchID).
		Int("transactions", len(txs)).
		Msg("Seed dataset ingested")

	return nil
}
