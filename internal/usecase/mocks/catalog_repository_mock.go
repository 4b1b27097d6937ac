package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zots0127/vidstore/internal/domain/entities"
)

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) Create(ctx context.Context, name string, mime entities.Mime) (string, error) {
	args := m.Called(ctx, name, mime)
	return args.String(0), args.Error(1)
}

func (m *MockCatalogRepository) UpdateSize(ctx context.Context, id string, size int64) (bool, error) {
	args := m.Called(ctx, id, size)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogRepository) Get(ctx context.Context, id string) (*entities.FileRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FileRecord), args.Error(1)
}

func (m *MockCatalogRepository) List(ctx context.Context) ([]*entities.FileRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.FileRecord), args.Error(1)
}

func (m *MockCatalogRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogRepository) ListStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
