package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/joboffers/internal/api/handler"
	"github.com/timmy/joboffers/internal/api/middleware"
	"github.com/timmy/joboffers/internal/config"
	"github.com/timmy/joboffers/internal/logger"
)

// Handlers groups the route handlers. Ingest is optional.
type Handlers struct {
	Health    *handler.HealthHandler
	JobOffers *handler.JobOfferHandler
	Ingest    *handler.IngestHandler
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *config.ServerConfig, h Handlers, log *logger.Logger) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	{
		api.GET("/job-offers", h.JobOffers.ListJobOffers)
	}

	if h.Ingest != nil {
		admin := r.Group("/api/admin")
		{
			admin.POST("/ingest", h.Ingest.TriggerIngest)
			admin.GET("/ingest/status", h.Ingest.GetIngestStatus)
			admin.GET("/ingest/runs", h.Ingest.ListRuns)
		}
	}

	return r
}
