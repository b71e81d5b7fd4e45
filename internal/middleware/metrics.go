package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edukita/timetable-api/internal/service"
)

// Metrics records per-request latency and counts. Routes are labelled by
// their template (e.g. /sections/:id/timetable) so path parameters do not
// explode label cardinality; unmatched requests fall back to the raw path.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
