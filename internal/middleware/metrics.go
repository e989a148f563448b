package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/geni/gdpr-consent-api/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route
const unmatchedRoute = "unmatched"

// RequestMetrics counts requests by route template, method and status
func RequestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.IncrementRequests(route, c.Request.Method, c.Writer.Status())
	}
}
