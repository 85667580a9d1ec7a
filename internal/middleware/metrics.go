package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghumahchegu/tuition-api/internal/service"
)

// Metrics observes request durations and counts on the metrics service.
// Labels use the route template so path parameters do not explode
// cardinality; unmatched routes fall back to the raw path.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
