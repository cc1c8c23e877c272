package repository

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/timmy/joboffers/internal/domain"
	apperrors "github.com/timmy/joboffers/internal/errors"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// JobOfferRepository persists canonical job offers.
type JobOfferRepository struct {
	db *gorm.DB
}

// NewJobOfferRepository creates a new JobOfferRepository.
// Parameters:
//   - db: GORM database handle opened with TranslateError enabled.
// Returns:
//   - *JobOfferRepository: repository instance bound to db.
func NewJobOfferRepository(db *gorm.DB) *JobOfferRepository {
	return &JobOfferRepository{db: db}
}

// Upsert inserts offer unless (provider, original_job_id) already exists.
// There is no pre-read: the unique index decides, so concurrent writers of
// the same key resolve to exactly one row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - offer: canonical offer; ID and timestamps are filled on success.
// Returns:
//   - error: DUPLICATE if the key exists, INTERNAL for any other failure.
func (r *JobOfferRepository) Upsert(ctx context.Context, offer *domain.JobOffer) error {
	err := r.db.WithContext(ctx).Create(offer).Error
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return apperrors.Duplicate("job offer "+offer.DedupKey()+" already exists", err)
	}
	return apperrors.Internal("failed to store job offer "+offer.DedupKey(), err)
}

// Find returns one page of offers matching filter and the total match count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filter: optional conditions plus 1-indexed page and limit.
// Returns:
//   - []domain.JobOffer: offers ordered by posted date, newest first.
//   - int64: number of matches ignoring pagination.
//   - error: INTERNAL if either query fails.
func (r *JobOfferRepository) Find(ctx context.Context, filter domain.JobOfferFilter) ([]domain.JobOffer, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := applyFilter(db.Model(&domain.JobOffer{}), filter).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count job offers", err)
	}

	offers := []domain.JobOffer{}
	if err := applyFilter(db, filter).
		Order("posted_date DESC").
		Order("id ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit).
		Find(&offers).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list job offers", err)
	}

	return offers, total, nil
}

// GetByKey retrieves an offer by its natural key.
func (r *JobOfferRepository) GetByKey(ctx context.Context, p domain.Provider, originalID string) (*domain.JobOffer, error) {
	var offer domain.JobOffer
	if err := r.db.WithContext(ctx).
		First(&offer, "provider = ? AND original_job_id = ?", p, originalID).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// CountByProvider returns the number of stored offers per provider.
func (r *JobOfferRepository) CountByProvider(ctx context.Context) (map[domain.Provider]int64, error) {
	var rows []struct {
		Provider domain.Provider
		Count    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&domain.JobOffer{}).
		Select("provider, COUNT(*) AS count").
		Group("provider").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[domain.Provider]int64, len(rows))
	for _, row := range rows {
		counts[row.Provider] = row.Count
	}
	return counts, nil
}

func applyFilter(db *gorm.DB, f domain.JobOfferFilter) *gorm.DB {
	if f.Title != "" {
		db = db.Where(`LOWER(title) LIKE LOWER(?) ESCAPE '\'`, containsPattern(f.Title))
	}
	if f.Location != "" {
		db = db.Where(`LOWER(location) LIKE LOWER(?) ESCAPE '\'`, containsPattern(f.Location))
	}
	if f.SalaryMin != nil {
		db = db.Where("salary_min >= ?", *f.SalaryMin)
	}
	if f.SalaryMax != nil {
		db = db.Where("salary_max <= ?", *f.SalaryMax)
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// sqlite drivers that do not implement gorm's error translator
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
