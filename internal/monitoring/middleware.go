package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestMiddleware records request counters, response times and access logs
// for every endpoint.
func RequestMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordResponseTime(duration)
		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", statusCode,
			"client_ip", c.ClientIP(),
			"duration_ms", duration.Milliseconds(),
		)

		if duration > 5*time.Second {
			logger.Warn("slow request",
				"path", c.Request.URL.Path,
				"duration_seconds", duration.Seconds(),
			)
		}
	}
}
