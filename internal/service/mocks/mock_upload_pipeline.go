package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/criszst/neopdf-sub000/internal/service"
)

type MockUploadPipeline struct {
	mock.Mock
}

func (m *MockUploadPipeline) Upload(ctx context.Context, r io.Reader, fileName, contentType string, size int64, ownerID string) (*service.UploadResult, error) {
	args := m.Called(ctx, r, fileName, contentType, size, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}
