// Package ingest pulls every configured provider, normalizes its records and
// hands them to the store one by one.
package ingest

import (
	"context"

	"github.com/timmy/joboffers/internal/domain"
)

// Adapter fetches one provider's native payload.
type Adapter[R any] interface {
	// Provider returns the provider this adapter talks to.
	Provider() domain.Provider

	// Fetch performs a single request for the current batch.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	// Returns:
	//   - R: native payload.
	//   - err: PROVIDER_UNAVAILABLE when the provider could not be read.
	Fetch(ctx context.Context) (R, error)
}

// Transformer turns a native payload into canonical offers.
type Transformer[R, N any] interface {
	// Records splits a payload into native records.
	Records(payload R) []N

	// Normalize converts one native record. Only a record that cannot be
	// dated fails; every other bad field degrades.
	Normalize(record N) (*domain.JobOffer, error)
}

// Record is one native record waiting to be normalized.
type Record func() (*domain.JobOffer, error)

// Source is a provider as seen by the orchestrator, with its native types
// hidden behind Record.
type Source interface {
	Provider() domain.Provider
	Fetch(ctx context.Context) ([]Record, error)
}

type pipeline[R, N any] struct {
	adapter     Adapter[R]
	transformer Transformer[R, N]
}

// NewSource binds an adapter to the transformer for the same provider.
func NewSource[R, N any](adapter Adapter[R], transformer Transformer[R, N]) Source {
	return &pipeline[R, N]{adapter: adapter, transformer: transformer}
}

func (p *pipeline[R, N]) Provider() domain.Provider {
	return p.adapter.Provider()
}

func (p *pipeline[R, N]) Fetch(ctx context.Context) ([]Record, error) {
	payload, err := p.adapter.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	native := p.transformer.Records(payload)
	records := make([]Record, len(native))
	for i := range native {
		n := native[i]
		records[i] = func() (*domain.JobOffer, error) {
			return p.transformer.Normalize(n)
		}
	}
	return records, nil
}
