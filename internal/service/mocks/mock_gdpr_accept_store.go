package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/geni/gdpr-consent-api/internal/models"
)

// MockGdprAcceptStore is a mock implementation of GdprAcceptStore
type MockGdprAcceptStore struct {
	mock.Mock
}

func (m *MockGdprAcceptStore) Find(ctx context.Context, userURN string) (*models.GdprAccept, error) {
	args := m.Called(ctx, userURN)
	if fn, ok := args.Get(0).(func(context.Context, string) *models.GdprAccept); ok {
		return fn(ctx, userURN), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GdprAccept), args.Error(1)
}

func (m *MockGdprAcceptStore) Upsert(ctx context.Context, record *models.GdprAccept) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockGdprAcceptStore) Delete(ctx context.Context, userURN string) error {
	args := m.Called(ctx, userURN)
	return args.Error(0)
}
