package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/joboffers/internal/api/middleware"
	"github.com/timmy/joboffers/internal/domain"
	"github.com/timmy/joboffers/internal/logger"
	"github.com/timmy/joboffers/internal/scheduler"
)

// IngestTrigger starts cycles on demand and reports on them.
type IngestTrigger interface {
	Trigger() bool
	Status() scheduler.Status
}

// RunLister reads the ingest run ledger.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.IngestRun, error)
}

// IngestHandler exposes ingestion controls for operators.
type IngestHandler struct {
	trigger IngestTrigger
	runs    RunLister
	logger  *logger.Logger
}

// NewIngestHandler creates a new ingest handler.
// Parameters:
//   - trigger: scheduler that owns cycle execution.
//   - runs: run ledger; nil disables the runs listing.
//   - log: fallback logger.
// Returns:
//   - *IngestHandler: initialized handler.
func NewIngestHandler(trigger IngestTrigger, runs RunLister, log *logger.Logger) *IngestHandler {
	return &IngestHandler{trigger: trigger, runs: runs, logger: log}
}

// TriggerIngest handles POST /api/admin/ingest. The cycle runs in the
// background; poll the status endpoint for its outcome.
func (h *IngestHandler) TriggerIngest(c *gin.Context) {
	log := middleware.GetLogger(c, h.logger)

	if !h.trigger.Trigger() {
		log.Warn("Ingest request rejected: a cycle is already running")
		c.JSON(http.StatusConflict, gin.H{"error": "Ingest is already running"})
		return
	}

	log.WithField("client_ip", c.ClientIP()).Info("Ingestion cycle triggered")
	c.JSON(http.StatusAccepted, gin.H{"message": "Ingestion cycle started"})
}

// GetIngestStatus handles GET /api/admin/ingest/status.
func (h *IngestHandler) GetIngestStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.trigger.Status())
}

// ListRuns handles GET /api/admin/ingest/runs.
func (h *IngestHandler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run recording is disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
		return
	}

	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		middleware.GetLogger(c, h.logger).WithError(err).Error("Failed to list ingest runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list ingest runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": runs})
}
