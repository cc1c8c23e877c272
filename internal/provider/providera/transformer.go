package providera

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/timmy/joboffers/internal/domain"
	apperrors "github.com/timmy/joboffers/internal/errors"
	"github.com/timmy/joboffers/internal/provider"
)

// salaryRangePattern finds "$57k - $127k" (or "$57.5k") anywhere in the field,
// so "Salary: $57k - $127k" parses too.
var salaryRangePattern = regexp.MustCompile(`\$(\d+(?:\.\d+)?)k\s*-\s*\$(\d+(?:\.\d+)?)k`)

// Transformer maps native records to canonical job offers.
type Transformer struct {
	obs provider.Observer
}

// NewTransformer creates a Transformer reporting unrecognized values to obs.
func NewTransformer(obs provider.Observer) *Transformer {
	return &Transformer{obs: obs}
}

// Records returns the native records of a response in payload order.
func (t *Transformer) Records(resp *Response) []Job {
	return resp.Jobs
}

// Normalize converts one record. Only an unparsable posted date is an error;
// every other malformed field degrades to nil or Other. Location and industry
// are always present in this payload and are kept verbatim, empty included.
func (t *Transformer) Normalize(job Job) (*domain.JobOffer, error) {
	posted, err := provider.ParseDate(job.PostedDate)
	if err != nil {
		return nil, apperrors.MalformedRecord("invalid postedDate for "+job.JobID, err)
	}

	salaryMin, salaryMax := ParseSalaryRange(job.Details.SalaryRange)
	location, industry := job.Details.Location, job.Company.Industry

	return &domain.JobOffer{
		Provider:        domain.ProviderOne,
		OriginalJobID:   job.JobID,
		Title:           job.Title,
		Location:        &location,
		JobType:         t.jobType(job.Details.Type),
		SalaryMin:       salaryMin,
		SalaryMax:       salaryMax,
		CompanyName:     job.Company.Name,
		CompanyIndustry: &industry,
		Skills:          domain.StringArray(job.Skills),
		PostedDate:      posted,
	}, nil
}

// ParseSalaryRange returns both bounds in whole units, or nil for both when
// no "$<min>k - $<max>k" range is found or either bound overflows an int.
func ParseSalaryRange(s string) (*int, *int) {
	m := salaryRangePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}
	lo, hi := thousands(m[1]), thousands(m[2])
	if lo == nil || hi == nil {
		return nil, nil
	}
	return lo, hi
}

// thousands converts "57.5" to 57500; nil when unparsable or out of int range.
func thousands(s string) *int {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return provider.WholeUnits(f * 1000)
}

func (t *Transformer) jobType(raw string) *domain.JobType {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return nil
	}

	var jt domain.JobType
	switch normalized {
	case "full-time":
		jt = domain.JobTypeFullTime
	case "part-time":
		jt = domain.JobTypePartTime
	case "contract":
		jt = domain.JobTypeContract
	case "temporary":
		jt = domain.JobTypeTemporary
	case "internship":
		jt = domain.JobTypeInternship
	default:
		t.obs.UnrecognizedValue(domain.ProviderOne, "jobType", raw)
		jt = domain.JobTypeOther
	}
	return &jt
}
