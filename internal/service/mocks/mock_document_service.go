package mocks

import (
	"context"
	"io"

	"printdesk/internal/model"
	"printdesk/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Ingest(ctx context.Context, in service.IngestInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, ownerID string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, ownerID, id string) (*model.Document, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Open(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Document, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*model.Document), args.Error(2)
}

func (m *MockDocumentService) Rename(ctx context.Context, ownerID, id, name string) (*model.Document, error) {
	args := m.Called(ctx, ownerID, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}
