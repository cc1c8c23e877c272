package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/joboffers/internal/api"
	"github.com/timmy/joboffers/internal/api/handler"
	"github.com/timmy/joboffers/internal/cache"
	"github.com/timmy/joboffers/internal/cache/redis"
	"github.com/timmy/joboffers/internal/config"
	"github.com/timmy/joboffers/internal/ingest"
	"github.com/timmy/joboffers/internal/logger"
	"github.com/timmy/joboffers/internal/provider"
	"github.com/timmy/joboffers/internal/repository"
	"github.com/timmy/joboffers/internal/scheduler"
	"github.com/timmy/joboffers/internal/service"
	"github.com/timmy/joboffers/internal/storage"
)

func main() {
	appLogger := logger.NewDefault()
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	defer repository.Close(db)

	offerRepo := repository.NewJobOfferRepository(db)
	runRepo := repository.NewIngestRunRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var queryCache cache.Cache
	if cfg.Cache.Enabled {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rc, err := redis.New(pingCtx, cfg.Cache.RedisURL, "joboffers:")
		cancel()
		if err != nil {
			// The query path works without the cache.
			appLogger.WithError(err).Warn("Redis unavailable, query cache disabled")
		} else {
			queryCache = rc
			defer rc.Close()
			appLogger.WithField("ttl", cfg.Cache.TTL.String()).Info("Query cache enabled")
		}
	}

	jobOfferService := service.NewJobOfferService(offerRepo, queryCache, appLogger, service.QueryConfig{
		Retries:      cfg.Query.Retries,
		InitialDelay: cfg.Query.InitialDelay,
		DefaultLimit: cfg.Query.DefaultLimit,
		MaxLimit:     cfg.Query.MaxLimit,
		CacheTTL:     cfg.Cache.TTL,
	})

	var ledger ingest.RunLedger
	if cfg.Ingest.RecordRuns {
		ledger = runRepo
	}
	var archive provider.PayloadSink
	if cfg.Archive.Enabled {
		if a, err := storage.OpenArchive(ctx, &cfg.Archive, appLogger); err != nil {
			appLogger.WithError(err).Warn("Payload archive unavailable, raw payloads will not be kept")
		} else {
			archive = a
		}
	}
	sources := ingest.BuildSources(cfg.Providers, provider.NewLogObserver(appLogger), archive, appLogger)
	orchestrator := ingest.NewOrchestrator(offerRepo, ledger, sources, appLogger, ingest.Config{
		AbortOnStoreError: cfg.Ingest.AbortOnStoreError,
	}).WithInvalidator(jobOfferService)

	sched := scheduler.New(orchestrator, scheduler.Config{
		Cron:       cfg.Scheduler.Cron,
		RunOnStart: cfg.Scheduler.RunOnStart,
	}, appLogger)
	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to start scheduler")
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to get database handle")
	}

	handlers := api.Handlers{
		Health:    handler.NewHealthHandler(sqlDB.PingContext),
		JobOffers: handler.NewJobOfferHandler(jobOfferService, appLogger),
	}
	if cfg.Scheduler.Enabled {
		var runs handler.RunLister
		if cfg.Ingest.RecordRuns {
			runs = runRepo
		}
		handlers.Ingest = handler.NewIngestHandler(sched, runs, appLogger)
	}

	router := api.SetupRouter(&cfg.Server, handlers, appLogger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":      cfg.Server.Port,
			"mode":      cfg.Server.Mode,
			"providers": len(sources),
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
	if cfg.Scheduler.Enabled {
		if err := sched.Stop(shutdownCtx); err != nil {
			appLogger.WithError(err).Warn("Ingestion cycle interrupted by shutdown")
		}
	}

	appLogger.Info("Server exited")
}
