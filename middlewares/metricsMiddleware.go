package middlewares

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/metrics"
)

// MetricsMiddleware records request counts and latency by route pattern.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		metrics.RequestStarted()
		c.Next()
		metrics.RequestFinished(strings.ToUpper(c.Request.Method), c.FullPath(), strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
