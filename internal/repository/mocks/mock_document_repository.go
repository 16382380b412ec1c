package mocks

import (
	"context"
	"time"

	"printdesk/internal/model"
	"printdesk/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if f, ok := args.Get(0).(func(context.Context, *model.Document) *model.Document); ok {
		return f(ctx, doc), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByOwner(ctx context.Context, id, ownerID string) (*model.Document, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindOwned(ctx context.Context, ownerID string, ids []string) ([]model.Document, error) {
	args := m.Called(ctx, ownerID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, ownerID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) SumSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, after repository.Cursor, limit int) ([]model.Document, error) {
	args := m.Called(ctx, cutoff, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Rename(ctx context.Context, id, ownerID, name string) (*model.Document, error) {
	args := m.Called(ctx, id, ownerID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ClearArtifact(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
