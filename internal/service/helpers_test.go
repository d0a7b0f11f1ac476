package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/criszst/neopdf-sub000/internal/model"
)

// In-package testify mocks for service-to-service collaborators. The mocks
// subpackage cannot be used here without an import cycle.

type mockDedup struct {
	mock.Mock
}

func (m *mockDedup) Resolve(ctx context.Context, content []byte, name, contentType, ownerID string) (*Resolution, error) {
	args := m.Called(ctx, content, name, contentType, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Resolution), args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, typ model.ActivityType, ownerID, documentID, details string) (*model.ActivityEvent, error) {
	args := m.Called(ctx, typ, ownerID, documentID, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ActivityEvent), args.Error(1)
}

func (m *mockRecorder) Recent(ctx context.Context, ownerID string, limit, offset int) (*ActivityListResult, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ActivityListResult), args.Error(1)
}

func (m *mockRecorder) Stats(ctx context.Context, ownerID string, window time.Duration) (map[model.ActivityType]int, error) {
	args := m.Called(ctx, ownerID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.ActivityType]int), args.Error(1)
}
