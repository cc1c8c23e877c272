package repository

import (
	"context"

	"github.com/timmy/joboffers/internal/domain"
	"gorm.io/gorm"
)

// IngestRunRepository keeps the per-provider ingestion ledger.
type IngestRunRepository struct {
	db *gorm.DB
}

// NewIngestRunRepository creates a new IngestRunRepository.
func NewIngestRunRepository(db *gorm.DB) *IngestRunRepository {
	return &IngestRunRepository{db: db}
}

// Create inserts a run when its provider batch starts.
func (r *IngestRunRepository) Create(ctx context.Context, run *domain.IngestRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Finish stores the final counters and status of a run.
func (r *IngestRunRepository) Finish(ctx context.Context, run *domain.IngestRun) error {
	return r.db.WithContext(ctx).Model(run).Select(
		"status", "total", "inserted", "skipped", "failed", "finished_at", "error_log",
	).Updates(run).Error
}

// GetByID retrieves a run by its ID.
func (r *IngestRunRepository) GetByID(ctx context.Context, id string) (*domain.IngestRun, error) {
	var run domain.IngestRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListByCycle returns the runs of one ingestion cycle.
func (r *IngestRunRepository) ListByCycle(ctx context.Context, cycleID string) ([]domain.IngestRun, error) {
	var runs []domain.IngestRun
	if err := r.db.WithContext(ctx).
		Where("cycle_id = ?", cycleID).
		Order("provider ASC").
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// ListRecent returns the latest runs, newest first.
func (r *IngestRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	var runs []domain.IngestRun
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
