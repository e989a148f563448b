package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/geni/gdpr-consent-api/internal/identity"
	"github.com/geni/gdpr-consent-api/internal/utils"
)

// RequireUserURN rejects requests whose peer certificate carries no user URN
// and stores the URN in the context otherwise.
func RequireUserURN(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userURN, ok := identity.UserURNFromTLS(c.Request.TLS)
		if !ok {
			logger.WithFields(logrus.Fields{
				"path":           c.Request.URL.Path,
				"correlation_id": utils.GetCorrelationIDFromContext(c),
			}).Warn("No user URN in peer certificate")
			utils.SendForbiddenResponse(c)
			c.Abort()
			return
		}
		c.Set(utils.ContextKeyUserURN, userURN)
		c.Next()
	}
}
