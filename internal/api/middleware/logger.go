package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/joboffers/internal/logger"
)

const (
	headerRequestID = "X-Request-ID"
	ginLoggerKey    = "logger"
)

// LoggerMiddleware returns a Gin middleware that injects a request-scoped logger.
// Parameters:
//   - log: base logger to enrich with request fields.
// Returns:
//   - gin.HandlerFunc: middleware handler.
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Honor an upstream id so traces line up across proxies.
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := logger.ContextWithFields(c.Request.Context(), log, logger.Fields{
			logger.FieldRequestID: requestID,
			logger.FieldComponent: "api",
		})
		c.Request = c.Request.WithContext(ctx)

		reqLog := logger.FromContext(ctx, log)
		c.Set(ginLoggerKey, reqLog)
		c.Header(headerRequestID, requestID)

		c.Next()

		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}

		entry := reqLog.WithFields(logger.Fields{
			logger.FieldStatus: c.Writer.Status(),
			"method":           c.Request.Method,
			"path":             fullPath,
			"client_ip":        c.ClientIP(),
			"size":             c.Writer.Size(),
		}).WithDuration(time.Since(start))

		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("Request completed with errors")
			return
		}
		entry.Info("Request completed")
	}
}

// GetLogger extracts logger from Gin context or request context.
// Parameters:
//   - c: Gin request context.
//   - fallback: logger used when the middleware did not run.
// Returns:
//   - *logger.Logger: request-scoped logger or fallback.
func GetLogger(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if l, exists := c.Get(ginLoggerKey); exists {
		if log, ok := l.(*logger.Logger); ok {
			return log
		}
	}
	return logger.FromContext(c.Request.Context(), fallback)
}
