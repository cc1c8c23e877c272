package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Provider identifies the external source of a job offer.
type Provider string

const (
	ProviderOne Provider = "provider1"
	ProviderTwo Provider = "provider2"
)

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOne, ProviderTwo:
		return true
	default:
		return false
	}
}

// JobType is the canonical employment type. A nil *JobType means the provider
// has no such concept; JobTypeOther means it sent a value we do not recognize.
type JobType string

const (
	JobTypeFullTime   JobType = "Full-Time"
	JobTypePartTime   JobType = "Part-Time"
	JobTypeContract   JobType = "Contract"
	JobTypeTemporary  JobType = "Temporary"
	JobTypeInternship JobType = "Internship"
	JobTypeOther      JobType = "Other"
)

// Currency follows the same nil versus Other convention as JobType.
type Currency string

const (
	CurrencyUSD   Currency = "USD"
	CurrencyEUR   Currency = "EUR"
	CurrencyGBP   Currency = "GBP"
	CurrencyOther Currency = "Other"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// MarshalJSON keeps an empty skill list as [] rather than null.
func (a StringArray) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(a))
}

// JobOffer is the provider-agnostic job offer. (Provider, OriginalJobID) is
// unique; the index is the only duplicate guard.
type JobOffer struct {
	ID              int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider        Provider    `gorm:"type:varchar(20);not null;uniqueIndex:idx_job_offers_provider_original,priority:1" json:"provider"`
	OriginalJobID   string      `gorm:"type:varchar(100);not null;uniqueIndex:idx_job_offers_provider_original,priority:2" json:"originalJobId"`
	Title           string      `gorm:"type:text;not null;index:idx_job_offers_title" json:"title"`
	Location        *string     `gorm:"type:text;index:idx_job_offers_location" json:"location"`
	Remote          *bool       `json:"remote"`
	JobType         *JobType    `gorm:"type:varchar(20)" json:"jobType"`
	SalaryMin       *int        `gorm:"index:idx_job_offers_salary_min" json:"salaryMin"`
	SalaryMax       *int        `gorm:"index:idx_job_offers_salary_max" json:"salaryMax"`
	Currency        *Currency   `gorm:"type:varchar(10)" json:"currency"`
	CompanyName     string      `gorm:"type:text;not null" json:"companyName"`
	CompanyIndustry *string     `gorm:"type:text" json:"companyIndustry"`
	CompanyWebsite  *string     `gorm:"type:text" json:"companyWebsite"`
	Skills          StringArray `gorm:"type:text" json:"skills"`
	PostedDate      time.Time   `gorm:"not null;index:idx_job_offers_posted_date" json:"postedDate"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// TableName returns the database table name for JobOffer.
func (JobOffer) TableName() string {
	return "job_offers"
}

// DedupKey returns the natural key used for duplicate suppression.
func (o *JobOffer) DedupKey() string {
	return string(o.Provider) + "/" + o.OriginalJobID
}

// JobOfferFilter narrows a job offer listing. Nil or empty fields are ignored.
type JobOfferFilter struct {
	Title     string
	Location  string
	SalaryMin *int
	SalaryMax *int
	Page      int
	Limit     int
}

// Offset returns the number of rows to skip for the 1-indexed page.
func (f JobOfferFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
