// Package scheduler triggers ingestion cycles on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/timmy/joboffers/internal/domain"
	"github.com/timmy/joboffers/internal/logger"
)

// Ingester runs one full ingestion cycle.
type Ingester interface {
	IngestAll(ctx context.Context) []*domain.IngestRun
}

type Config struct {
	Cron       string
	RunOnStart bool
}

// Status describes the most recent cycle.
type Status struct {
	Running      bool                `json:"running"`
	Spec         string              `json:"spec"`
	LastStarted  *time.Time          `json:"last_started,omitempty"`
	LastFinished *time.Time          `json:"last_finished,omitempty"`
	LastRuns     []*domain.IngestRun `json:"last_runs,omitempty"`
}

// Scheduler wraps robfig/cron. At most one cycle runs at a time whether it
// was started by the schedule or by Trigger.
type Scheduler struct {
	cron     *cron.Cron
	ingester Ingester
	cfg      Config
	logger   *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	running      bool
	lastStarted  time.Time
	lastFinished time.Time
	lastRuns     []*domain.IngestRun
}

// New creates a Scheduler; nothing runs until Start.
func New(ingester Ingester, cfg Config, log *logger.Logger) *Scheduler {
	log = log.WithComponent("scheduler")
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ingester: ingester,
		cfg:      cfg,
		logger:   log,
	}
}

// Start registers the cycle and starts the cron loop. With RunOnStart one
// cycle also begins immediately in the background.
// Parameters:
//   - ctx: parent of every cycle context; cancelling it cancels running cycles.
// Returns:
//   - error: non-nil if the cron spec is invalid.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.cron.AddFunc(s.cfg.Cron, func() {
		s.run(s.ctx)
	}); err != nil {
		s.cancel()
		return fmt.Errorf("cron.AddFunc(%q): %w", s.cfg.Cron, err)
	}

	s.cron.Start()
	s.logger.WithField("spec", s.cfg.Cron).Info("Scheduler started")

	if s.cfg.RunOnStart {
		s.Trigger()
	}
	return nil
}

// Trigger starts a cycle in the background.
// Returns:
//   - bool: false if a cycle is already running or the scheduler is not started.
func (s *Scheduler) Trigger() bool {
	if s.ctx == nil || s.ctx.Err() != nil || !s.begin() {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(s.ctx)
	}()
	return true
}

// Stop halts the schedule and waits for a running cycle until ctx is done,
// then cancels it.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	defer func() {
		if s.cancel != nil {
			s.cancel()
		}
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out, cancelling running cycle")
		return ctx.Err()
	}
}

// Status reports the current and last cycle.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.running, Spec: s.cfg.Cron, LastRuns: s.lastRuns}
	if !s.lastStarted.IsZero() {
		t := s.lastStarted
		st.LastStarted = &t
	}
	if !s.lastFinished.IsZero() {
		t := s.lastFinished
		st.LastFinished = &t
	}
	return st
}

func (s *Scheduler) run(ctx context.Context) {
	if !s.begin() {
		s.logger.Info("Previous cycle still running, skipping tick")
		return
	}
	s.execute(ctx)
}

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	s.lastStarted = time.Now()
	return true
}

func (s *Scheduler) execute(ctx context.Context) {
	runs := s.ingester.IngestAll(ctx)

	s.mu.Lock()
	s.running = false
	s.lastFinished = time.Now()
	s.lastRuns = runs
	s.mu.Unlock()
}

// cronLogger routes cron's own messages through logrus.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kv(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kv(keysAndValues)).WithError(err).Error(msg)
}

func kv(keysAndValues []interface{}) logger.Fields {
	fields := logger.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			fields[k] = keysAndValues[i+1]
		}
	}
	return fields
}
