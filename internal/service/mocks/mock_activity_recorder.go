package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/criszst/neopdf-sub000/internal/model"
	"github.com/criszst/neopdf-sub000/internal/service"
)

type MockActivityRecorder struct {
	mock.Mock
}

func (m *MockActivityRecorder) Record(ctx context.Context, typ model.ActivityType, ownerID, documentID, details string) (*model.ActivityEvent, error) {
	args := m.Called(ctx, typ, ownerID, documentID, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ActivityEvent), args.Error(1)
}

func (m *MockActivityRecorder) Recent(ctx context.Context, ownerID string, limit, offset int) (*service.ActivityListResult, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ActivityListResult), args.Error(1)
}

func (m *MockActivityRecorder) Stats(ctx context.Context, ownerID string, window time.Duration) (map[model.ActivityType]int, error) {
	args := m.Called(ctx, ownerID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.ActivityType]int), args.Error(1)
}
