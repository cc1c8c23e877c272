package domain

import "time"

// RunStatus is the outcome of one provider batch.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusAborted   RunStatus = "aborted"
	RunStatusFailed    RunStatus = "failed"
)

// IngestRun records what happened to one provider during one ingestion cycle.
type IngestRun struct {
	ID         string     `gorm:"type:text;primaryKey" json:"id"`
	CycleID    string     `gorm:"type:text;not null;index" json:"cycle_id"`
	Provider   Provider   `gorm:"type:varchar(20);not null;index" json:"provider"`
	Status     RunStatus  `gorm:"type:varchar(20);default:running" json:"status"`
	Total      int        `gorm:"default:0" json:"total"`
	Inserted   int        `gorm:"default:0" json:"inserted"`
	Skipped    int        `gorm:"default:0" json:"skipped"`
	Failed     int        `gorm:"default:0" json:"failed"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ErrorLog   string     `gorm:"type:text" json:"error_log,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the database table name for IngestRun.
func (IngestRun) TableName() string {
	return "ingest_runs"
}
