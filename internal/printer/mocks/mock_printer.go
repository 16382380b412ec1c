package mocks

import (
	"context"

	"printdesk/internal/printer"

	"github.com/stretchr/testify/mock"
)

type MockPrinter struct {
	mock.Mock
}

func (m *MockPrinter) Print(ctx context.Context, job printer.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
