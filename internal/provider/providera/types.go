// Package providera fetches and normalizes offers from the first provider,
// whose payload is a nested array with string-encoded salary ranges.
package providera

// Response is the provider's native payload.
type Response struct {
	Metadata Metadata `json:"metadata"`
	Jobs     []Job    `json:"jobs"`
}

type Metadata struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Job is a single native record.
type Job struct {
	JobID      string   `json:"jobId"`
	Title      string   `json:"title"`
	Details    Details  `json:"details"`
	Company    Company  `json:"company"`
	Skills     []string `json:"skills"`
	PostedDate string   `json:"postedDate"`
}

type Details struct {
	Location    string `json:"location"`
	Type        string `json:"type"`        // e.g. "Full-Time"
	SalaryRange string `json:"salaryRange"` // e.g. "$57k - $127k"
}

type Company struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
}
