package mocks

import (
	"context"

	"printdesk/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockLoginCodeRepository struct {
	mock.Mock
}

func (m *MockLoginCodeRepository) Create(ctx context.Context, c *model.LoginCode) (*model.LoginCode, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoginCode), args.Error(1)
}
