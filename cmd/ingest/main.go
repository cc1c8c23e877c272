package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/joboffers/internal/cache/redis"
	"github.com/timmy/joboffers/internal/config"
	"github.com/timmy/joboffers/internal/domain"
	"github.com/timmy/joboffers/internal/ingest"
	"github.com/timmy/joboffers/internal/logger"
	"github.com/timmy/joboffers/internal/provider"
	"github.com/timmy/joboffers/internal/repository"
	"github.com/timmy/joboffers/internal/service"
	"github.com/timmy/joboffers/internal/storage"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "joboffers-ingest",
	})

	providerFlag := flag.String("provider", "all", "Provider to ingest from: all, provider1 or provider2")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	defer repository.Close(db)

	offerRepo := repository.NewJobOfferRepository(db)

	var ledger ingest.RunLedger
	if cfg.Ingest.RecordRuns {
		ledger = repository.NewIngestRunRepository(db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	})

	// A running API may be serving cached pages from the shared redis.
	if cfg.Cache.Enabled {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rc, err := redis.New(pingCtx, cfg.Cache.RedisURL, "joboffers:")
		cancel()
		if err != nil {
			appLogger.WithError(err).Warn("Redis unavailable, cached query results will expire on their own")
		} else {
			defer rc.Close()
			orchestrator.WithInvalidator(service.NewJobOfferService(offerRepo, rc, appLogger, service.QueryConfig{}))
		}
	}

	appLogger.WithField("provider", *providerFlag).Info("Starting ingestion")

	var runs []*domain.IngestRun
	switch p := domain.Provider(*providerFlag); {
	case *providerFlag == "all":
		runs = orchestrator.IngestAll(ctx)
	case p.Valid():
		runs = orchestrator.IngestOnly(ctx, p)
		if len(runs) == 0 {
			appLogger.WithField("provider", *providerFlag).Fatal("Provider is disabled in config")
		}
	default:
		appLogger.WithField("provider", *providerFlag).Fatal("Unknown provider")
	}

	failed := false
	for _, run := range runs {
		appLogger.WithFields(logger.Fields{
			logger.FieldProvider: string(run.Provider),
			logger.FieldStatus:   string(run.Status),
			"total":              run.Total,
			"inserted":           run.Inserted,
			"skipped":            run.Skipped,
			"failed":             run.Failed,
		}).Info("Ingestion completed")
		if run.Status == domain.RunStatusFailed || run.Status == domain.RunStatusAborted {
			failed = true
		}
	}

	if counts, err := offerRepo.CountByProvider(context.Background()); err == nil {
		for p, n := range counts {
			appLogger.WithFields(logger.Fields{
				logger.FieldProvider: string(p),
				logger.FieldCount:    n,
			}).Info("Stored job offers")
		}
	}

	if failed {
		// Fatal would skip the deferred Close; keep the exit explicit.
		repository.Close(db)
		os.Exit(1)
	}
}
