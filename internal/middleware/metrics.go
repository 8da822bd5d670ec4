package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/youthlaunch/microintern-api/internal/service"
)

// Metrics observes every request on the shared metrics registry. The route
// template is used as the path label so IDs do not explode cardinality.
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
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
