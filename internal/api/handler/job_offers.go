package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/joboffers/internal/api/middleware"
	apperrors "github.com/timmy/joboffers/internal/errors"
	"github.com/timmy/joboffers/internal/logger"
	"github.com/timmy/joboffers/internal/service"
)

// JobOfferQuerier is the query side used by the handler.
type JobOfferQuerier interface {
	Query(ctx context.Context, req service.QueryRequest) (*service.QueryResult, error)
}

// JobOfferHandler serves job offer listings.
type JobOfferHandler struct {
	service JobOfferQuerier
	logger  *logger.Logger
}

// NewJobOfferHandler creates a new job offer handler.
// Parameters:
//   - svc: query service.
//   - log: fallback logger when no request logger is attached.
// Returns:
//   - *JobOfferHandler: initialized handler.
func NewJobOfferHandler(svc JobOfferQuerier, log *logger.Logger) *JobOfferHandler {
	return &JobOfferHandler{service: svc, logger: log}
}

// ListJobOffersQuery are the accepted query string parameters.
type ListJobOffersQuery struct {
	Title     string `form:"title"`
	Location  string `form:"location"`
	SalaryMin *int   `form:"salaryMin"`
	SalaryMax *int   `form:"salaryMax"`
	Page      *int   `form:"page"`
	Limit     *int   `form:"limit"`
}

// ListJobOffers handles GET /api/job-offers.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobOfferHandler) ListJobOffers(c *gin.Context) {
	log := middleware.GetLogger(c, h.logger)

	var q ListJobOffersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		log.WithError(err).Warn("Invalid job offer query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters: " + err.Error()})
		return
	}

	result, err := h.service.Query(c.Request.Context(), service.QueryRequest{
		Title:     q.Title,
		Location:  q.Location,
		SalaryMin: q.SalaryMin,
		SalaryMax: q.SalaryMax,
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeError maps domain error types to HTTP statuses.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var de *apperrors.DomainError
	message := "internal error"
	if errors.As(err, &de) {
		message = de.Message
	}

	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
	case apperrors.ErrTypeUnavailable:
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
