package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/timmy/joboffers/internal/cache"
	"github.com/timmy/joboffers/internal/domain"
	apperrors "github.com/timmy/joboffers/internal/errors"
	"github.com/timmy/joboffers/internal/logger"
	"github.com/timmy/joboffers/internal/retry"
)

const (
	unavailableMessage = "job offers are temporarily unavailable, retry later"
	cacheKeyPrefix     = "job_offers:"
)

// JobOfferFinder is the read side of the job offer store.
type JobOfferFinder interface {
	Find(ctx context.Context, filter domain.JobOfferFilter) ([]domain.JobOffer, int64, error)
}

// QueryConfig holds query service settings.
type QueryConfig struct {
	Retries      int
	InitialDelay time.Duration
	DefaultLimit int
	MaxLimit     int
	CacheTTL     time.Duration
}

// QueryRequest carries the caller's filters. Nil Page and Limit take the
// defaults; explicit values below 1 are rejected.
type QueryRequest struct {
	Title     string
	Location  string
	SalaryMin *int
	SalaryMax *int
	Page      *int
	Limit     *int
}

// QueryResult is one page of offers plus the unpaginated match count.
type QueryResult struct {
	Data  []domain.JobOffer `json:"data"`
	Total int64             `json:"total"`
}

// JobOfferService serves filtered, paginated job offer listings.
type JobOfferService struct {
	repo      JobOfferFinder
	cache     cache.Cache
	cfg       QueryConfig
	logger    *logger.Logger
	retryOpts []retry.Option
}

// NewJobOfferService creates a new JobOfferService.
// Parameters:
//   - repo: job offer store.
//   - c: optional result cache; nil disables caching.
//   - log: base logger.
//   - cfg: retry, pagination and cache settings.
// Returns:
//   - *JobOfferService: configured service.
func NewJobOfferService(repo JobOfferFinder, c cache.Cache, log *logger.Logger, cfg QueryConfig) *JobOfferService {
	if cfg.DefaultLimit < 1 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	return &JobOfferService{
		repo:   repo,
		cache:  c,
		cfg:    cfg,
		logger: log.WithComponent("job_offer_service"),
	}
}

// WithRetryOptions sets options passed to every retry.Do call.
func (s *JobOfferService) WithRetryOptions(opts ...retry.Option) *JobOfferService {
	s.retryOpts = opts
	return s
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *JobOfferService) log(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx, s.logger)
}

// Query validates req, then reads through the cache and the store. Store
// failures are retried; when the retries are spent the caller only sees
// UNAVAILABLE.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: filters and pagination.
// Returns:
//   - *QueryResult: matching page and total.
//   - error: INVALID_INPUT for bad filters, UNAVAILABLE when the store cannot be read.
func (s *JobOfferService) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	filter, err := s.buildFilter(req)
	if err != nil {
		return nil, err
	}

	key := cacheKey(filter)
	if s.cache != nil {
		var cached QueryResult
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			s.log(ctx).WithField("cache_key", key).Debug("Query cache hit")
			return &cached, nil
		case !errors.Is(err, cache.ErrNotFound):
			s.log(ctx).WithError(err).Warn("Query cache read failed")
		}
	}

	var result *QueryResult
	policy := retry.Policy{Retries: s.cfg.Retries, InitialDelay: s.cfg.InitialDelay}
	opts := append([]retry.Option{
		retry.WithNotify(func(err error, attempt int, delay time.Duration) {
			s.log(ctx).WithError(err).WithFields(logger.Fields{
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
			}).Warn("Job offer query failed, retrying")
		}),
	}, s.retryOpts...)

	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		offers, total, err := s.repo.Find(ctx, filter)
		if err != nil {
			return err
		}
		result = &QueryResult{Data: offers, Total: total}
		return nil
	}, opts...)
	if err != nil {
		s.log(ctx).WithError(err).Error("Job offer query failed after retries")
		return nil, apperrors.Unavailable(unavailableMessage, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cfg.CacheTTL); err != nil {
			s.log(ctx).WithError(err).Warn("Query cache write failed")
		}
	}

	return result, nil
}

// InvalidateCache drops every cached query result. Ingestion calls it after a
// cycle that stored new offers.
func (s *JobOfferService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	n, err := s.cache.DeletePrefix(ctx, cacheKeyPrefix)
	if err != nil {
		return fmt.Errorf("invalidate query cache: %w", err)
	}
	s.log(ctx).WithCount(n).Debug("Query cache invalidated")
	return nil
}

func (s *JobOfferService) buildFilter(req QueryRequest) (domain.JobOfferFilter, error) {
	filter := domain.JobOfferFilter{
		Title:     strings.TrimSpace(req.Title),
		Location:  strings.TrimSpace(req.Location),
		SalaryMin: req.SalaryMin,
		SalaryMax: req.SalaryMax,
		Page:      1,
		Limit:     s.cfg.DefaultLimit,
	}

	if req.Page != nil {
		if *req.Page < 1 {
			return filter, apperrors.InvalidInput("page must be at least 1", nil)
		}
		filter.Page = *req.Page
	}
	if req.Limit != nil {
		if *req.Limit < 1 {
			return filter, apperrors.InvalidInput("limit must be at least 1", nil)
		}
		if *req.Limit > s.cfg.MaxLimit {
			return filter, apperrors.InvalidInput(fmt.Sprintf("limit must not exceed %d", s.cfg.MaxLimit), nil)
		}
		filter.Limit = *req.Limit
	}
	if filter.Page-1 > math.MaxInt/filter.Limit {
		return filter, apperrors.InvalidInput("page is too large", nil)
	}
	if req.SalaryMin != nil && *req.SalaryMin < 0 {
		return filter, apperrors.InvalidInput("salaryMin must not be negative", nil)
	}
	if req.SalaryMax != nil && *req.SalaryMax < 0 {
		return filter, apperrors.InvalidInput("salaryMax must not be negative", nil)
	}
	if req.SalaryMin != nil && req.SalaryMax != nil && *req.SalaryMin > *req.SalaryMax {
		return filter, apperrors.InvalidInput("salaryMin must not exceed salaryMax", nil)
	}

	return filter, nil
}

func cacheKey(f domain.JobOfferFilter) string {
	var b strings.Builder
	b.WriteString(cacheKeyPrefix)
	b.WriteString(strconv.Quote(strings.ToLower(f.Title)))
	b.WriteByte(':')
	b.WriteString(strconv.Quote(strings.ToLower(f.Location)))
	b.WriteByte(':')
	b.WriteString(optionalInt(f.SalaryMin))
	b.WriteByte(':')
	b.WriteString(optionalInt(f.SalaryMax))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(f.Page))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(f.Limit))
	return b.String()
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
