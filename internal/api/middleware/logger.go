package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/logging"
)

// AccessLog logs server errors at error level, client errors and slow
// requests at warn, and everything else at debug.
func AccessLog(logger *zap.Logger, slow time.Duration) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		log := logging.FromContext(c.Request.Context(), logger)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("Request failed", fields...)
		case status >= 400:
			log.Warn("Request rejected", fields...)
		case slow > 0 && elapsed > slow:
			log.Warn("Slow request", fields...)
		default:
			log.Debug("Request served", fields...)
		}
	}
}
