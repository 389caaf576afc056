package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/markaz-dev/markaz-api/internal/service"
)

// Metrics records request count and latency per route. The route template
// (c.FullPath) is used as the path label so parameterised routes do not
// explode cardinality.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
