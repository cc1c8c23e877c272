package ingest

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/joboffers/internal/domain"
	apperrors "github.com/timmy/joboffers/internal/errors"
	"github.com/timmy/joboffers/internal/logger"
)

const maxErrorLogLines = 20

// Store persists one canonical offer. A key that already exists must be
// reported as a DUPLICATE domain error.
type Store interface {
	Upsert(ctx context.Context, offer *domain.JobOffer) error
}

// RunLedger records per-provider batch summaries.
type RunLedger interface {
	Create(ctx context.Context, run *domain.IngestRun) error
	Finish(ctx context.Context, run *domain.IngestRun) error
}

// Invalidator drops derived read state, such as cached query results, once a
// cycle has stored new offers.
type Invalidator interface {
	InvalidateCache(ctx context.Context) error
}

// Config controls batch failure handling.
type Config struct {
	// AbortOnStoreError abandons the rest of a provider batch after the first
	// persistence failure that is not a duplicate.
	AbortOnStoreError bool
}

// Orchestrator runs ingestion cycles over a fixed set of sources.
type Orchestrator struct {
	store       Store
	runs        RunLedger
	sources     []Source
	invalidator Invalidator
	logger      *logger.Logger
	cfg         Config
}

// NewOrchestrator creates a new Orchestrator.
// Parameters:
//   - store: job offer persistence.
//   - runs: optional run ledger; nil disables run recording.
//   - sources: providers to pull each cycle.
//   - log: base logger.
//   - cfg: failure handling options.
// Returns:
//   - *Orchestrator: ready to run cycles.
func NewOrchestrator(store Store, runs RunLedger, sources []Source, log *logger.Logger, cfg Config) *Orchestrator {
	return &Orchestrator{
		store:   store,
		runs:    runs,
		sources: sources,
		logger:  log.WithComponent("ingest"),
		cfg:     cfg,
	}
}

// WithInvalidator sets the hook run after each cycle that inserted offers.
func (o *Orchestrator) WithInvalidator(inv Invalidator) *Orchestrator {
	o.invalidator = inv
	return o
}

// IngestAll runs one cycle: every source concurrently, each in its own
// goroutine. It returns once all of them have finished. Failures stay inside
// the provider that produced them and are reported through the summaries.
func (o *Orchestrator) IngestAll(ctx context.Context) []*domain.IngestRun {
	return o.ingest(ctx, o.sources)
}

// IngestOnly runs one cycle restricted to the given providers.
func (o *Orchestrator) IngestOnly(ctx context.Context, providers ...domain.Provider) []*domain.IngestRun {
	var selected []Source
	for _, src := range o.sources {
		for _, p := range providers {
			if src.Provider() == p {
				selected = append(selected, src)
				break
			}
		}
	}
	return o.ingest(ctx, selected)
}

func (o *Orchestrator) ingest(ctx context.Context, sources []Source) []*domain.IngestRun {
	cycleID := uuid.NewString()
	ctx = logger.ContextWithFields(ctx, o.logger, logger.Fields{logger.FieldCycleID: cycleID})
	log := logger.FromContext(ctx, o.logger)

	start := time.Now()
	log.WithCount(len(sources)).Info("Starting ingestion cycle")

	results := make([]*domain.IngestRun, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = o.IngestProvider(ctx, src)
		}(i, src)
	}
	wg.Wait()

	inserted := 0
	for _, run := range results {
		inserted += run.Inserted
	}
	if inserted > 0 && o.invalidator != nil {
		if err := o.invalidator.InvalidateCache(context.WithoutCancel(ctx)); err != nil {
			log.WithError(err).Warn("Failed to invalidate cached query results")
		}
	}

	log.WithDuration(time.Since(start)).WithField("inserted", inserted).Info("Ingestion cycle finished")
	return results
}

// IngestProvider runs one provider batch: a single fetch, then normalize and
// store each record in payload order.
// Parameters:
//   - ctx: context for cancellation; its logger's cycle_id is reused when set.
//   - src: provider to pull.
// Returns:
//   - *domain.IngestRun: batch summary, never nil.
func (o *Orchestrator) IngestProvider(ctx context.Context, src Source) *domain.IngestRun {
	cycleID := logger.GetCycleID(ctx)
	if cycleID == "" {
		cycleID = uuid.NewString()
		ctx = logger.ContextWithFields(ctx, o.logger, logger.Fields{logger.FieldCycleID: cycleID})
	}

	run := &domain.IngestRun{
		ID:        uuid.NewString(),
		CycleID:   cycleID,
		Provider:  src.Provider(),
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	log := logger.FromContext(ctx, o.logger).WithField(logger.FieldProvider, string(run.Provider))
	o.recordStart(ctx, log, run)

	errs := &errorLog{}
	defer func() {
		finished := time.Now().UTC()
		run.FinishedAt = &finished
		run.ErrorLog = errs.String()
		o.recordFinish(ctx, log, run)

		log.WithFields(logger.Fields{
			logger.FieldStatus: string(run.Status),
			"total":            run.Total,
			"inserted":         run.Inserted,
			"skipped":          run.Skipped,
			"failed":           run.Failed,
		}).WithDuration(finished.Sub(run.StartedAt)).Info("Provider batch finished")
	}()

	records, err := src.Fetch(ctx)
	if err != nil {
		// The adapter already logged the cause with its stack.
		log.WithError(err).Warn("Skipping provider for this cycle")
		errs.add(err.Error())
		run.Status = domain.RunStatusFailed
		return run
	}
	run.Total = len(records)

	for _, record := range records {
		if ctx.Err() != nil {
			errs.add(ctx.Err().Error())
			run.Status = domain.RunStatusAborted
			return run
		}

		offer, err := record()
		if err != nil {
			run.Failed++
			errs.add(err.Error())
			log.WithError(err).Error("Skipping malformed record")
			continue
		}

		recLog := log.WithField(logger.FieldOriginalID, offer.OriginalJobID)
		err = o.store.Upsert(ctx, offer)
		switch {
		case err == nil:
			run.Inserted++
		case apperrors.IsDuplicate(err):
			run.Skipped++
			recLog.Info("Duplicate job offer skipped")
		default:
			run.Failed++
			errs.add(offer.OriginalJobID + ": " + err.Error())
			recLog.WithError(err).Error("Failed to store job offer")
			if o.cfg.AbortOnStoreError {
				recLog.Warn("Abandoning remaining records of this batch")
				run.Status = domain.RunStatusAborted
				return run
			}
		}
	}

	if run.Failed > 0 {
		run.Status = domain.RunStatusPartial
	} else {
		run.Status = domain.RunStatusCompleted
	}
	return run
}

func (o *Orchestrator) recordStart(ctx context.Context, log *logger.Logger, run *domain.IngestRun) {
	if o.runs == nil {
		return
	}
	if err := o.runs.Create(ctx, run); err != nil {
		log.WithError(err).Warn("Failed to record ingest run start")
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, log *logger.Logger, run *domain.IngestRun) {
	if o.runs == nil {
		return
	}
	// The summary is still written when the cycle was cancelled.
	if err := o.runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		log.WithError(err).Warn("Failed to record ingest run result")
	}
}

type errorLog struct {
	lines   []string
	dropped int
}

func (e *errorLog) add(line string) {
	if len(e.lines) >= maxErrorLogLines {
		e.dropped++
		return
	}
	e.lines = append(e.lines, line)
}

func (e *errorLog) String() string {
	s := strings.Join(e.lines, "\n")
	if e.dropped > 0 {
		s += "\n(" + strconv.Itoa(e.dropped) + " more)"
	}
	return s
}
