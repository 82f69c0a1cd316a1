package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bondfolio/internal/metrics"
)

// Metrics returns a Gin middleware that records request counts and durations.
// Requests are labelled by route template so path IDs do not become labels.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		method := c.Request.Method

		metrics.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}
