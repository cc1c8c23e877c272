package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/timmy/joboffers/internal/config"
	"github.com/timmy/joboffers/internal/domain"
	apperrors "github.com/timmy/joboffers/internal/errors"
	"github.com/timmy/joboffers/internal/logger"
	"github.com/timmy/joboffers/internal/provider"
)

// memStore is a Store keyed like the unique index.
type memStore struct {
	mu     sync.Mutex
	offers map[string]*domain.JobOffer
	failOn map[string]error
	calls  int
}

func newMemStore() *memStore {
	return &memStore{offers: map[string]*domain.JobOffer{}, failOn: map[string]error{}}
}

func (s *memStore) Upsert(_ context.Context, offer *domain.JobOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err, ok := s.failOn[offer.OriginalJobID]; ok {
		return apperrors.Internal("store failure", err)
	}
	key := offer.DedupKey()
	if _, ok := s.offers[key]; ok {
		return apperrors.Duplicate("exists", nil)
	}
	s.offers[key] = offer
	return nil
}

func (s *memStore) count(p domain.Provider) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.offers {
		if o.Provider == p {
			n++
		}
	}
	return n
}

type memLedger struct {
	mu       sync.Mutex
	created  []*domain.IngestRun
	finished []domain.IngestRun
}

func (l *memLedger) Create(_ context.Context, run *domain.IngestRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.created = append(l.created, run)
	return nil
}

func (l *memLedger) Finish(_ context.Context, run *domain.IngestRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finished = append(l.finished, *run)
	return nil
}

// fakeSource emits offers with the given ids. An id starting with "bad" fails
// normalization.
type fakeSource struct {
	provider domain.Provider
	ids      []string
	fetchErr error
	fetches  int
	mu       sync.Mutex
}

func (f *fakeSource) Provider() domain.Provider { return f.provider }

func (f *fakeSource) Fetch(context.Context) ([]Record, error) {
	f.mu.Lock()
	f.fetches++
	f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	records := make([]Record, len(f.ids))
	for i, id := range f.ids {
		id := id
		records[i] = func() (*domain.JobOffer, error) {
			if len(id) >= 3 && id[:3] == "bad" {
				return nil, apperrors.MalformedRecord("invalid date for "+id, errors.New("bad date"))
			}
			return &domain.JobOffer{
				Provider:      f.provider,
				OriginalJobID: id,
				Title:         "Engineer " + id,
				CompanyName:   "Acme",
				PostedDate:    time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			}, nil
		}
	}
	return records, nil
}

func ids(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return out
}

func runFor(runs []*domain.IngestRun, p domain.Provider) *domain.IngestRun {
	for _, r := range runs {
		if r.Provider == p {
			return r
		}
	}
	return nil
}

func TestIngestAll_BothProviders(t *testing.T) {
	store := newMemStore()
	ledger := &memLedger{}
	a := &fakeSource{provider: domain.ProviderOne, ids: ids("a", 4)}
	b := &fakeSource{provider: domain.ProviderTwo, ids: ids("b", 6)}
	o := NewOrchestrator(store, ledger, []Source{a, b}, logger.Discard(), Config{})

	runs := o.IngestAll(context.Background())

	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if store.count(domain.ProviderOne) != 4 || store.count(domain.ProviderTwo) != 6 {
		t.Errorf("stored %d/%d, want 4/6", store.count(domain.ProviderOne), store.count(domain.ProviderTwo))
	}
	for _, r := range runs {
		if r.Status != domain.RunStatusCompleted {
			t.Errorf("%s status = %s, want completed", r.Provider, r.Status)
		}
		if r.FinishedAt == nil {
			t.Errorf("%s finished_at not set", r.Provider)
		}
	}
	if runs[0].CycleID == "" || runs[0].CycleID != runs[1].CycleID {
		t.Errorf("cycle ids differ: %q vs %q", runs[0].CycleID, runs[1].CycleID)
	}
	if len(ledger.created) != 2 || len(ledger.finished) != 2 {
		t.Errorf("ledger created=%d finished=%d, want 2/2", len(ledger.created), len(ledger.finished))
	}
}

func TestIngestAll_Idempotent(t *testing.T) {
	store := newMemStore()
	a := &fakeSource{provider: domain.ProviderOne, ids: ids("a", 3)}
	b := &fakeSource{provider: domain.ProviderTwo, ids: ids("b", 2)}
	o := NewOrchestrator(store, nil, []Source{a, b}, logger.Discard(), Config{})

	o.IngestAll(context.Background())
	runs := o.IngestAll(context.Background())

	if store.count(domain.ProviderOne) != 3 || store.count(domain.ProviderTwo) != 2 {
		t.Errorf("second cycle changed the store: %d/%d", store.count(domain.ProviderOne), store.count(domain.ProviderTwo))
	}
	for _, r := range runs {
		if r.Inserted != 0 || r.Skipped != r.Total {
			t.Errorf("%s second cycle: inserted=%d skipped=%d total=%d", r.Provider, r.Inserted, r.Skipped, r.Total)
		}
		if r.Status != domain.RunStatusCompleted {
			t.Errorf("%s status = %s, duplicates are not failures", r.Provider, r.Status)
		}
	}
}

func TestIngestAll_FetchFailureIsolated(t *testing.T) {
	store := newMemStore()
	a := &fakeSource{
		provider: domain.ProviderOne,
		fetchErr: apperrors.ProviderUnavailable("provider1", errors.New("connection refused")),
	}
	b := &fakeSource{provider: domain.ProviderTwo, ids: ids("b", 3)}
	o := NewOrchestrator(store, nil, []Source{a, b}, logger.Discard(), Config{})

	runs := o.IngestAll(context.Background())

	ra, rb := runFor(runs, domain.ProviderOne), runFor(runs, domain.ProviderTwo)
	if ra.Status != domain.RunStatusFailed || ra.ErrorLog == "" {
		t.Errorf("provider1 run = %+v, want failed with error log", ra)
	}
	if rb.Status != domain.RunStatusCompleted || store.count(domain.ProviderTwo) != 3 {
		t.Errorf("provider2 must be unaffected: %+v", rb)
	}
	if a.fetches != 1 {
		t.Errorf("fetches = %d, failed fetch must not be retried", a.fetches)
	}
}

func TestIngestProvider_StoreFailure(t *testing.T) {
	tests := []struct {
		name         string
		abort        bool
		wantInserted int
		wantFailed   int
		wantStatus   domain.RunStatus
	}{
		{name: "isolate record", abort: false, wantInserted: 4, wantFailed: 1, wantStatus: domain.RunStatusPartial},
		{name: "abort batch", abort: true, wantInserted: 2, wantFailed: 1, wantStatus: domain.RunStatusAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.failOn["a-2"] = errors.New("disk full")
			src := &fakeSource{provider: domain.ProviderOne, ids: ids("a", 5)}
			o := NewOrchestrator(store, nil, []Source{src}, logger.Discard(), Config{AbortOnStoreError: tt.abort})

			run := o.IngestProvider(context.Background(), src)

			if run.Inserted != tt.wantInserted || run.Failed != tt.wantFailed {
				t.Errorf("inserted=%d failed=%d, want %d/%d", run.Inserted, run.Failed, tt.wantInserted, tt.wantFailed)
			}
			if run.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", run.Status, tt.wantStatus)
			}
			if run.Total != 5 {
				t.Errorf("total = %d, want 5", run.Total)
			}
		})
	}
}

func TestIngestProvider_MalformedRecordSkipped(t *testing.T) {
	store := newMemStore()
	src := &fakeSource{provider: domain.ProviderTwo, ids: []string{"b-0", "bad-1", "b-2"}}
	o := NewOrchestrator(store, nil, []Source{src}, logger.Discard(), Config{AbortOnStoreError: true})

	run := o.IngestProvider(context.Background(), src)

	if run.Inserted != 2 || run.Failed != 1 || run.Status != domain.RunStatusPartial {
		t.Errorf("run = %+v, want 2 inserted, 1 failed, partial", run)
	}
	if store.calls != 2 {
		t.Errorf("store calls = %d, malformed record must not reach the store", store.calls)
	}
}

func TestIngestProvider_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newMemStore()
	ledger := &memLedger{}
	src := &fakeSource{provider: domain.ProviderOne, ids: ids("a", 3)}
	o := NewOrchestrator(store, ledger, []Source{src}, logger.Discard(), Config{})

	run := o.IngestProvider(ctx, src)

	if run.Status != domain.RunStatusAborted || run.Inserted != 0 {
		t.Errorf("run = %+v, want aborted with nothing stored", run)
	}
	if len(ledger.finished) != 1 {
		t.Errorf("run summary must be recorded after cancellation")
	}
}

func TestIngestOnly(t *testing.T) {
	store := newMemStore()
	a := &fakeSource{provider: domain.ProviderOne, ids: ids("a", 2)}
	b := &fakeSource{provider: domain.ProviderTwo, ids: ids("b", 2)}
	o := NewOrchestrator(store, nil, []Source{a, b}, logger.Discard(), Config{})

	runs := o.IngestOnly(context.Background(), domain.ProviderTwo)

	if len(runs) != 1 || runs[0].Provider != domain.ProviderTwo {
		t.Fatalf("runs = %+v, want only provider2", runs)
	}
	if a.fetches != 0 {
		t.Error("provider1 must not be fetched")
	}
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingInvalidator) InvalidateCache(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func TestIngestAll_InvalidatesAfterInserts(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		cycles    int
		wantCalls int
	}{
		{name: "first cycle inserts", cycles: 1, wantCalls: 1},
		{name: "repeat cycle inserts nothing", cycles: 2, wantCalls: 1},
		{name: "invalidation failure is not fatal", err: errors.New("redis down"), cycles: 1, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			inv := &countingInvalidator{err: tt.err}
			src := &fakeSource{provider: domain.ProviderOne, ids: ids("a", 2)}
			o := NewOrchestrator(store, nil, []Source{src}, logger.Discard(), Config{}).WithInvalidator(inv)

			for i := 0; i < tt.cycles; i++ {
				o.IngestAll(context.Background())
			}
			if inv.calls != tt.wantCalls {
				t.Errorf("invalidations = %d, want %d", inv.calls, tt.wantCalls)
			}
			if store.count(domain.ProviderOne) != 2 {
				t.Errorf("stored %d offers, want 2", store.count(domain.ProviderOne))
			}
		})
	}
}

func TestIngestAll_NoInvalidationWhenFetchFails(t *testing.T) {
	inv := &countingInvalidator{}
	src := &fakeSource{provider: domain.ProviderTwo, fetchErr: errors.New("down")}
	o := NewOrchestrator(newMemStore(), nil, []Source{src}, logger.Discard(), Config{}).WithInvalidator(inv)

	o.IngestAll(context.Background())
	if inv.calls != 0 {
		t.Errorf("invalidations = %d, want 0", inv.calls)
	}
}

func TestErrorLog_Truncates(t *testing.T) {
	e := &errorLog{}
	for i := 0; i < maxErrorLogLines+3; i++ {
		e.add("line")
	}
	if len(e.lines) != maxErrorLogLines || e.dropped != 3 {
		t.Errorf("lines=%d dropped=%d", len(e.lines), e.dropped)
	}
}

func TestBuildSources(t *testing.T) {
	cfg := config.ProvidersConfig{
		Provider1: config.ProviderConfig{Enabled: false, URL: "http://a/jobs", Timeout: time.Second},
		Provider2: config.ProviderConfig{Enabled: true, URL: "http://b/jobs", Timeout: time.Second},
	}

	sources := BuildSources(cfg, &provider.Recorder{}, nil, logger.Discard())

	if len(sources) != 1 || sources[0].Provider() != domain.ProviderTwo {
		t.Fatalf("sources = %v, want only provider2", sources)
	}
}
