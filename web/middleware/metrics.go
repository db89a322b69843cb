package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/dolar-feed/observability/metrics"
)

// MetricsMiddleware counts requests by matched route and status. Unmatched
// paths are reported as "unmatched".
func MetricsMiddleware(recorder metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.QueryServed(c.Request.Context(), route, c.Writer.Status())
	}
}
