// Package providerb fetches and normalizes offers from the second provider,
// whose payload is a map keyed by job id with structured compensation.
package providerb

// Response is the provider's native payload.
type Response struct {
	Status string `json:"status"`
	Data   Data   `json:"data"`
}

type Data struct {
	JobsList map[string]Job `json:"jobsList"`
}

// Job is a single native record; its id is the map key.
type Job struct {
	Position     string       `json:"position"`
	Location     Location     `json:"location"`
	Compensation Compensation `json:"compensation"`
	Employer     Employer     `json:"employer"`
	Requirements Requirements `json:"requirements"`
	DatePosted   string       `json:"datePosted"`
}

type Location struct {
	City   string `json:"city"`
	State  string `json:"state"`
	Remote *bool  `json:"remote"`
}

type Compensation struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency string   `json:"currency"`
}

type Employer struct {
	CompanyName string `json:"companyName"`
	Website     string `json:"website"`
}

type Requirements struct {
	Experience   *float64 `json:"experience"`
	Technologies []string `json:"technologies"`
}

// Entry pairs a record with the id it was keyed by.
type Entry struct {
	ID  string
	Job Job
}
