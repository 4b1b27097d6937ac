package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/zots0127/vidstore/internal/domain/repository"
)

// MockBlobRepository is a mock implementation of BlobRepository
type MockBlobRepository struct {
	mock.Mock
}

func (m *MockBlobRepository) OpenWrite(ctx context.Context, id string) (repository.WriteHandle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.WriteHandle), args.Error(1)
}

func (m *MockBlobRepository) OpenRead(ctx context.Context, id string) (io.ReadCloser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockBlobRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
