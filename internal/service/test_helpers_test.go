package service

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/geni/gdpr-consent-api/internal/assets"
	"github.com/geni/gdpr-consent-api/internal/metrics"
	"github.com/geni/gdpr-consent-api/internal/service/mocks"
)

// TestSetup contains common test dependencies
type TestSetup struct {
	MockStore *mocks.MockGdprAcceptStore
	Metrics   *metrics.Metrics
	Service   *GdprService
	Logger    *logrus.Logger
	Now       time.Time
}

// NewTestSetup creates a service over a mock store with a fixed clock
func NewTestSetup() *TestSetup {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := &mocks.MockGdprAcceptStore{}
	m := metrics.New(prometheus.NewRegistry())
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	return &TestSetup{
		MockStore: store,
		Metrics:   m,
		Service:   NewGdprService(store, assets.Default(), m, logger, func() time.Time { return now }),
		Logger:    logger,
		Now:       now,
	}
}
