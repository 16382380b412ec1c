package mocks

import (
	"context"

	"printdesk/internal/pagecount"

	"github.com/stretchr/testify/mock"
)

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Count(ctx context.Context, data []byte, f pagecount.Format) (pagecount.Result, error) {
	args := m.Called(ctx, data, f)
	return args.Get(0).(pagecount.Result), args.Error(1)
}
