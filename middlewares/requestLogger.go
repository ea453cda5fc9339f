package middlewares

import (
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs failed and slow requests only.
func RequestLogger(logger *logrus.Logger, slow time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		elapsed := time.Since(started)
		status := c.Writer.Status()
		if len(c.Errors) == 0 && status < 500 && (slow <= 0 || elapsed < slow) {
			return
		}

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		entry := logger.WithFields(logrus.Fields{
			"method":         c.Request.Method,
			"path":           c.FullPath(),
			"status":         status,
			"duration_ms":    elapsed.Milliseconds(),
			"correlation_id": cid,
		})
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
			return
		}
		if status >= 500 {
			entry.Error("request failed")
			return
		}
		entry.Warn("slow request")
	}
}
