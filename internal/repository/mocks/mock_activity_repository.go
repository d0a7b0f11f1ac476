package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/criszst/neopdf-sub000/internal/model"
	"github.com/criszst/neopdf-sub000/internal/repository"
)

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Append(ctx context.Context, ev *model.ActivityEvent, effect repository.DocumentEffect) (*model.ActivityEvent, error) {
	args := m.Called(ctx, ev, effect)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ActivityEvent), args.Error(1)
}

func (m *MockActivityRepository) ListRecent(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.ActivityEvent], error) {
	args := m.Called(ctx, ownerID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.ActivityEvent]), args.Error(1)
}

func (m *MockActivityRepository) CountByType(ctx context.Context, ownerID string, since time.Time) (map[model.ActivityType]int, error) {
	args := m.Called(ctx, ownerID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.ActivityType]int), args.Error(1)
}
