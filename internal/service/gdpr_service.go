package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/geni/gdpr-consent-api/internal/assets"
	"github.com/geni/gdpr-consent-api/internal/metrics"
	"github.com/geni/gdpr-consent-api/internal/models"
	"github.com/geni/gdpr-consent-api/pkg/utils"
)

// GdprAcceptStore is the persistence the service depends on
type GdprAcceptStore interface {
	Find(ctx context.Context, userURN string) (*models.GdprAccept, error)
	Upsert(ctx context.Context, record *models.GdprAccept) error
	Delete(ctx context.Context, userURN string) error
}

// Clock returns the current time
type Clock func() time.Time

// GdprService handles the consent registrations of the GDPR site
type GdprService struct {
	store   GdprAcceptStore
	assets  *assets.Assets
	metrics *metrics.Metrics
	logger  *logrus.Logger
	now     Clock
}

// NewGdprService creates a new GdprService. A nil clock uses the current UTC time.
func NewGdprService(
	store GdprAcceptStore,
	pageAssets *assets.Assets,
	m *metrics.Metrics,
	logger *logrus.Logger,
	clock Clock,
) *GdprService {
	if clock == nil {
		clock = utils.NowUTC
	}
	return &GdprService{
		store:   store,
		assets:  pageAssets,
		metrics: m,
		logger:  logger,
		now:     clock,
	}
}

// HTML returns the consent page
func (s *GdprService) HTML() []byte { return s.assets.HTML }

// JS returns the consent page script
func (s *GdprService) JS() []byte { return s.assets.JS }

// CSS returns the consent page stylesheet
func (s *GdprService) CSS() []byte { return s.assets.CSS }

// RegisterAccept stores the sanitized accept flags of a user, replacing any
// earlier registration. The testbed access flag is always derived here.
func (s *GdprService) RegisterAccept(ctx context.Context, userURN string, req models.AcceptRequest) error {
	if err := validateUserURN(userURN); err != nil {
		return err
	}

	record := &models.GdprAccept{
		UserURN:    userURN,
		Fields:     models.NewAcceptFields(bool(req.AcceptMain), bool(req.AcceptUserdata)),
		RecordedAt: s.now().UTC(),
	}

	start := time.Now()
	err := s.store.Upsert(ctx, record)
	s.observe("upsert", start)
	if err != nil {
		s.logger.WithError(err).WithField("user_urn", userURN).Error("Failed to register gdpr accepts")
		return fmt.Errorf("failed to register accepts: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementAcceptsRegistered(record.Fields.TestbedAccess)
	}
	s.logger.WithFields(logrus.Fields{
		"user_urn":       userURN,
		"testbed_access": record.Fields.TestbedAccess,
	}).Info("gdpr accepts registered")
	return nil
}

// RegisterDecline removes every accept of a user. Declining without a prior
// accept succeeds.
func (s *GdprService) RegisterDecline(ctx context.Context, userURN string) error {
	if err := validateUserURN(userURN); err != nil {
		return err
	}

	start := time.Now()
	err := s.store.Delete(ctx, userURN)
	s.observe("delete", start)
	if err != nil {
		s.logger.WithError(err).WithField("user_urn", userURN).Error("Failed to register gdpr decline")
		return fmt.Errorf("failed to register decline: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementDeclines()
	}
	s.logger.WithField("user_urn", userURN).Info("gdpr decline registered")
	return nil
}

// GetUserAccepts returns the current accepts of a user, or nil when the user
// has never accepted or has declined since.
func (s *GdprService) GetUserAccepts(ctx context.Context, userURN string) (*models.UserAccepts, error) {
	if err := validateUserURN(userURN); err != nil {
		return nil, err
	}

	start := time.Now()
	record, err := s.store.Find(ctx, userURN)
	s.observe("find", start)
	if err != nil {
		s.logger.WithError(err).WithField("user_urn", userURN).Error("Failed to get gdpr accepts")
		return nil, fmt.Errorf("failed to get accepts: %w", err)
	}
	if record == nil {
		return nil, nil
	}

	return &models.UserAccepts{
		User:           userURN,
		Until:          record.RecordedAt,
		AcceptMain:     record.Fields.AcceptMain,
		AcceptUserdata: record.Fields.AcceptUserdata,
		TestbedAccess:  record.Fields.TestbedAccess,
	}, nil
}

func validateUserURN(userURN string) error {
	if err := utils.ValidateUserURN(userURN, models.UserURNPrefix); err != nil {
		return fmt.Errorf("%w: %w", models.ErrInvalidUserURN, err)
	}
	return nil
}

func (s *GdprService) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOperationLatency(operation, time.Since(start).Seconds())
	}
}
