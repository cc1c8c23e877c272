package providera

import (
	"strconv"
	"testing"
	"time"

	"github.com/timmy/joboffers/internal/domain"
	apperrors "github.com/timmy/joboffers/internal/errors"
	"github.com/timmy/joboffers/internal/provider"
)

func sampleJob() Job {
	return Job{
		JobID: "P1-123",
		Title: "Backend Engineer",
		Details: Details{
			Location:    "San Francisco, CA",
			Type:        "Full-Time",
			SalaryRange: "$57k - $127k",
		},
		Company:    Company{Name: "TechCorp", Industry: "Technology"},
		Skills:     []string{"Go", "PostgreSQL"},
		PostedDate: "2025-02-07T10:00:00.000Z",
	}
}

func TestNormalize_FullRecord(t *testing.T) {
	rec := &provider.Recorder{}
	offer, err := NewTransformer(rec).Normalize(sampleJob())
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}

	if offer.Provider != domain.ProviderOne || offer.OriginalJobID != "P1-123" {
		t.Errorf("unexpected key %s", offer.DedupKey())
	}
	if offer.Location == nil || *offer.Location != "San Francisco, CA" {
		t.Errorf("location = %v", offer.Location)
	}
	if offer.Remote != nil {
		t.Error("remote must be nil for this provider")
	}
	if offer.Currency != nil {
		t.Error("currency must be nil for this provider")
	}
	if offer.CompanyWebsite != nil {
		t.Error("companyWebsite must be nil for this provider")
	}
	if offer.JobType == nil || *offer.JobType != domain.JobTypeFullTime {
		t.Errorf("jobType = %v", offer.JobType)
	}
	if offer.SalaryMin == nil || *offer.SalaryMin != 57000 || offer.SalaryMax == nil || *offer.SalaryMax != 127000 {
		t.Errorf("salary = %v..%v", offer.SalaryMin, offer.SalaryMax)
	}
	if offer.CompanyIndustry == nil || *offer.CompanyIndustry != "Technology" {
		t.Errorf("companyIndustry = %v", offer.CompanyIndustry)
	}
	if len(offer.Skills) != 2 || offer.Skills[0] != "Go" {
		t.Errorf("skills = %v", offer.Skills)
	}
	want := time.Date(2025, 2, 7, 10, 0, 0, 0, time.UTC)
	if !offer.PostedDate.Equal(want) {
		t.Errorf("postedDate = %v, want %v", offer.PostedDate, want)
	}
	if len(rec.Events()) != 0 {
		t.Errorf("unexpected warnings: %v", rec.Events())
	}
}

func TestParseSalaryRange(t *testing.T) {
	tests := []struct {
		in       string
		min, max int
		ok       bool
	}{
		{in: "$57k - $127k", min: 57000, max: 127000, ok: true},
		{in: "$57.5k - $100k", min: 57500, max: 100000, ok: true},
		{in: "$0.25k - $1.005k", min: 250, max: 1005, ok: true},
		{in: " $80k-$120k ", min: 80000, max: 120000, ok: true},
		{in: "Salary: $57k - $127k (DOE)", min: 57000, max: 127000, ok: true},
		{in: "$99999999999999999k - $99999999999999999999k"},
		{in: "$50k - $99999999999999999999k"},
		{in: "$9300000000000000k - $9300000000000001k"},
		{in: "57k - 127k"},
		{in: "$57 - $127"},
		{in: "$57k to $127k"},
		{in: "$57k"},
		{in: ""},
		{in: "competitive"},
		{in: "$k - $k"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lo, hi := ParseSalaryRange(tt.in)
			if !tt.ok {
				if lo != nil || hi != nil {
					t.Errorf("ParseSalaryRange(%q) = %v, %v; want nil, nil", tt.in, lo, hi)
				}
				return
			}
			if lo == nil || hi == nil {
				t.Fatalf("ParseSalaryRange(%q) returned nil", tt.in)
			}
			if *lo != tt.min || *hi != tt.max {
				t.Errorf("ParseSalaryRange(%q) = %d, %d; want %d, %d", tt.in, *lo, *hi, tt.min, tt.max)
			}
		})
	}
}

func TestParseSalaryRange_WholeThousands(t *testing.T) {
	for a := 0; a <= 300; a += 7 {
		for b := a; b <= 300; b += 13 {
			s := "$" + strconv.Itoa(a) + "k - $" + strconv.Itoa(b) + "k"
			lo, hi := ParseSalaryRange(s)
			if lo == nil || hi == nil || *lo != a*1000 || *hi != b*1000 {
				t.Fatalf("ParseSalaryRange(%q) = %v, %v", s, lo, hi)
			}
		}
	}
}

func TestNormalize_JobTypes(t *testing.T) {
	tests := []struct {
		raw  string
		want *domain.JobType
		warn bool
	}{
		{raw: "Full-Time", want: ptr(domain.JobTypeFullTime)},
		{raw: "  part-time ", want: ptr(domain.JobTypePartTime)},
		{raw: "CONTRACT", want: ptr(domain.JobTypeContract)},
		{raw: "Temporary", want: ptr(domain.JobTypeTemporary)},
		{raw: "internship", want: ptr(domain.JobTypeInternship)},
		{raw: "Freelance", want: ptr(domain.JobTypeOther), warn: true},
		{raw: "full time", want: ptr(domain.JobTypeOther), warn: true},
		{raw: "", want: nil},
		{raw: "   ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rec := &provider.Recorder{}
			job := sampleJob()
			job.Details.Type = tt.raw

			offer, err := NewTransformer(rec).Normalize(job)
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}

			switch {
			case tt.want == nil && offer.JobType != nil:
				t.Errorf("jobType = %s, want nil", *offer.JobType)
			case tt.want != nil && (offer.JobType == nil || *offer.JobType != *tt.want):
				t.Errorf("jobType = %v, want %s", offer.JobType, *tt.want)
			}

			events := rec.Events()
			if tt.warn {
				if len(events) != 1 {
					t.Fatalf("expected 1 warning, got %d", len(events))
				}
				if events[0].Raw != tt.raw || events[0].Field != "jobType" || events[0].Provider != domain.ProviderOne {
					t.Errorf("unexpected event %+v", events[0])
				}
			} else if len(events) != 0 {
				t.Errorf("unexpected warnings: %v", events)
			}
		})
	}
}

func TestNormalize_DegradedFields(t *testing.T) {
	job := sampleJob()
	job.Details.Location = ""
	job.Details.SalaryRange = "negotiable"
	job.Company.Industry = ""
	job.Skills = nil

	offer, err := NewTransformer(&provider.Recorder{}).Normalize(job)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if offer.SalaryMin != nil || offer.SalaryMax != nil {
		t.Errorf("salary = %v..%v, want nil", offer.SalaryMin, offer.SalaryMax)
	}
	if offer.Location == nil || *offer.Location != "" || offer.CompanyIndustry == nil || *offer.CompanyIndustry != "" {
		t.Errorf("location and industry should be kept verbatim, got %v, %v", offer.Location, offer.CompanyIndustry)
	}
	if len(offer.Skills) != 0 {
		t.Errorf("skills = %v, want empty", offer.Skills)
	}
}

func TestNormalize_MalformedDate(t *testing.T) {
	for _, raw := range []string{"", "yesterday", "2025-13-45"} {
		job := sampleJob()
		job.PostedDate = raw

		offer, err := NewTransformer(&provider.Recorder{}).Normalize(job)
		if err == nil {
			t.Errorf("Normalize(postedDate=%q) expected error, got %+v", raw, offer)
			continue
		}
		if !apperrors.IsType(err, apperrors.ErrTypeMalformedRecord) {
			t.Errorf("error type = %s, want MALFORMED_RECORD", apperrors.TypeOf(err))
		}
	}
}

func ptr[T any](v T) *T { return &v }

