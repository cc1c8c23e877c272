package providerb

import (
	"sort"
	"strings"

	"github.com/timmy/joboffers/internal/domain"
	apperrors "github.com/timmy/joboffers/internal/errors"
	"github.com/timmy/joboffers/internal/provider"
)

// Transformer maps native records to canonical job offers.
type Transformer struct {
	obs provider.Observer
}

// NewTransformer creates a Transformer reporting unrecognized values to obs.
func NewTransformer(obs provider.Observer) *Transformer {
	return &Transformer{obs: obs}
}

// Records flattens the id-keyed map. Entries are sorted by id so logs are
// stable; callers must not depend on the order.
func (t *Transformer) Records(resp *Response) []Entry {
	entries := make([]Entry, 0, len(resp.Data.JobsList))
	for id, job := range resp.Data.JobsList {
		entries = append(entries, Entry{ID: id, Job: job})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Normalize converts one record. The provider has no job type concept, so
// JobType is always nil and never Other.
func (t *Transformer) Normalize(e Entry) (*domain.JobOffer, error) {
	job := e.Job
	posted, err := provider.ParseDate(job.DatePosted)
	if err != nil {
		return nil, apperrors.MalformedRecord("invalid datePosted for "+e.ID, err)
	}

	location := job.Location.City + ", " + job.Location.State

	skills := job.Requirements.Technologies
	if skills == nil {
		skills = []string{}
	}

	return &domain.JobOffer{
		Provider:       domain.ProviderTwo,
		OriginalJobID:  e.ID,
		Title:          job.Position,
		Location:       &location,
		Remote:         job.Location.Remote,
		JobType:        nil,
		SalaryMin:      wholeUnits(job.Compensation.Min),
		SalaryMax:      wholeUnits(job.Compensation.Max),
		Currency:       t.currency(job.Compensation.Currency),
		CompanyName:    job.Employer.CompanyName,
		CompanyWebsite: provider.OptionalString(job.Employer.Website),
		Skills:         domain.StringArray(skills),
		PostedDate:     posted,
	}, nil
}

func wholeUnits(v *float64) *int {
	if v == nil {
		return nil
	}
	return provider.WholeUnits(*v)
}

func (t *Transformer) currency(raw string) *domain.Currency {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return nil
	}

	var c domain.Currency
	switch normalized {
	case "USD":
		c = domain.CurrencyUSD
	case "EUR":
		c = domain.CurrencyEUR
	case "GBP":
		c = domain.CurrencyGBP
	default:
		t.obs.UnrecognizedValue(domain.ProviderTwo, "currency", raw)
		c = domain.CurrencyOther
	}
	return &c
}
