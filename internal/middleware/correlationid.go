package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/geni/gdpr-consent-api/internal/utils"
	pkgutils "github.com/geni/gdpr-consent-api/pkg/utils"
)

// CorrelationIDHeaderName is the response header carrying the request's correlation ID
const CorrelationIDHeaderName = "X-Correlation-ID"

// maxCorrelationIDLength bounds client supplied IDs before they reach the logs
const maxCorrelationIDLength = 128

// CorrelationID reuses the caller's correlation ID or generates one
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := extractCorrelationID(c)
		if correlationID == "" {
			correlationID = pkgutils.GenerateCorrelationID()
		}
		c.Set(utils.ContextKeyCorrelationID, correlationID)
		c.Header(CorrelationIDHeaderName, correlationID)
		c.Next()
	}
}

func extractCorrelationID(c *gin.Context) string {
	headers := []string{CorrelationIDHeaderName, "X-Request-ID", "X-Trace-ID"}
	for _, header := range headers {
		if id := c.GetHeader(header); id != "" && len(id) <= maxCorrelationIDLength {
			return id
		}
	}
	return ""
}
