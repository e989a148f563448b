package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/geni/gdpr-consent-api/internal/assets"
	"github.com/geni/gdpr-consent-api/internal/config"
	"github.com/geni/gdpr-consent-api/internal/dao"
	"github.com/geni/gdpr-consent-api/internal/database"
	"github.com/geni/gdpr-consent-api/internal/metrics"
	"github.com/geni/gdpr-consent-api/internal/router"
	"github.com/geni/gdpr-consent-api/internal/rpcclient"
	"github.com/geni/gdpr-consent-api/internal/service"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// Set Gin to release mode by default (can be overridden by GIN_MODE env var)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	logger.WithFields(logrus.Fields{
		"version":    version,
		"build_date": buildDate,
	}).Info("Starting GDPR consent site...")

	// CONFIG_PATH wins; otherwise configs/config.yaml is used when present
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogger(logger, &cfg.Logging)

	logger.WithFields(logrus.Fields{
		"config_path": configPath,
		"log_level":   logger.GetLevel().String(),
	}).Info("Configuration loaded successfully")

	db, err := database.Initialize(&cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	gdprDAO := dao.NewGdprAcceptDAO(db, logger)
	schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = gdprDAO.EnsureSchema(schemaCtx)
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("Failed to create consent schema")
	}
	logger.WithField("dialect", db.Dialect()).Info("Database connection established successfully")

	pageAssets, err := assets.Load(cfg.GDPR.AssetDir)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load page assets")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	gdprService := service.NewGdprService(gdprDAO, pageAssets, m, logger, nil)

	forwarder := rpcclient.NewForwarder(&cfg.RPC, logger)
	logger.WithField("enabled", forwarder.Enabled()).Info("RPC forwarder initialized")

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddress(),
		Handler:        router.SetupRouter(gdprService, forwarder, m, logger, cfg.GDPR.MaxAcceptBytes),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}
	if cfg.Server.TLS.Enabled {
		tlsConfig, err := serverTLSConfig(&cfg.Server.TLS)
		if err != nil {
			logger.WithError(err).Fatal("Failed to configure TLS")
		}
		server.TLSConfig = tlsConfig
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr": server.Addr,
			"tls":  cfg.Server.TLS.Enabled,
		}).Info("Starting HTTP server...")

		var err error
		if cfg.Server.TLS.Enabled {
			err = server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	var opsServer *http.Server
	if cfg.Ops.Enabled {
		opsServer = &http.Server{
			Addr:              cfg.Ops.Address,
			Handler:           router.SetupOpsRouter(db, registry, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.WithField("addr", opsServer.Addr).Info("Starting operations server...")
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Fatal("Failed to start operations server")
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if opsServer != nil {
		if err := opsServer.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Operations server forced to shutdown")
		}
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	db.LogStats()

	logger.Info("Server exited gracefully")
}

func configureLogger(logger *logrus.Logger, cfg *config.LoggingConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// serverTLSConfig asks every client for a certificate. With a client CA the
// certificate is verified when given; a client without one still connects
// and is refused by the GDPR routes.
func serverTLSConfig(cfg *config.TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ClientAuth: tls.RequestClientCert,
	}
	if cfg.ClientCAFile == "" {
		return tlsConfig, nil
	}

	pem, err := os.ReadFile(cfg.ClientCAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", cfg.ClientCAFile)
	}
	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = tls.VerifyClientCertIfGiven
	return tlsConfig, nil
}
