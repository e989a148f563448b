package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/geni/gdpr-consent-api/internal/handlers"
	"github.com/geni/gdpr-consent-api/internal/metrics"
	"github.com/geni/gdpr-consent-api/internal/middleware"
	"github.com/geni/gdpr-consent-api/internal/rpcclient"
	"github.com/geni/gdpr-consent-api/internal/service"
	"github.com/geni/gdpr-consent-api/internal/utils"
)

// SetupRouter configures the GDPR site routes. Paths are matched exactly:
// /gdpr and /gdpr/ are distinct routes and no redirects are issued.
func SetupRouter(
	gdprService *service.GdprService,
	forwarder *rpcclient.Forwarder,
	m *metrics.Metrics,
	logger *logrus.Logger,
	maxAcceptBytes int64,
) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	if m != nil {
		router.Use(middleware.RequestMetrics(m))
	}
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithField("panic", recovered).Error("Recovered from panic")
		utils.SendInternalServerError(c, "Failed to process request")
		c.Abort()
	}))

	// Create handlers
	gdprHandler := handlers.NewGdprHandler(gdprService, maxAcceptBytes, logger)
	rpcHandler := handlers.NewRPCHandler(forwarder, logger)

	gdpr := router.Group("/gdpr", middleware.RequireUserURN(logger))
	{
		for _, path := range []string{"", "/", "/index.html"} {
			gdpr.GET(path, gdprHandler.Page)
		}
		gdpr.GET("/gdpr.js", gdprHandler.Script)
		gdpr.GET("/gdpr.css", gdprHandler.Stylesheet)

		gdpr.GET("/accept", gdprHandler.GetAccepts)
		gdpr.PUT("/accept", gdprHandler.PutAccepts)

		for _, path := range []string{"", "/", "/accept"} {
			gdpr.DELETE(path, gdprHandler.DeleteAccepts)
		}
	}

	router.NoMethod(utils.SendMethodNotAllowedError)
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && forwarder.Enabled() {
			rpcHandler.Forward(c)
			return
		}
		utils.SendNotFoundError(c)
	})

	return router
}

// HealthChecker reports whether the consent store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SetupOpsRouter configures the operations listener serving /health and /metrics
func SetupOpsRouter(db HealthChecker, gatherer prometheus.Gatherer, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			logger.WithError(err).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return router
}
