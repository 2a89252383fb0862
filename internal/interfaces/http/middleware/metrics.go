package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPRecorder observes finished HTTP requests
type HTTPRecorder interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// HTTPMetrics records every request under its route template so that path
// parameters do not explode label cardinality. Unmatched routes are
// recorded as "unmatched".
func HTTPMetrics(recorder HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
