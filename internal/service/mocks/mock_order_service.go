package mocks

import (
	"context"

	"printdesk/internal/model"
	"printdesk/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, in service.CreateOrderInput) (*model.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ConfirmPayment(ctx context.Context, ownerID, id string) (*model.Order, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, ownerID, id string) (*model.Order, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, ownerID string, limit, offset int) (*service.OrderListResult, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OrderListResult), args.Error(1)
}

func (m *MockOrderService) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

type MockDispatchService struct {
	mock.Mock
}

func (m *MockDispatchService) Dispatch(ctx context.Context, ownerID, id string) (*model.Order, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

type MockCodeService struct {
	mock.Mock
}

func (m *MockCodeService) Generate(ctx context.Context, phone, code string) (*model.LoginCode, error) {
	args := m.Called(ctx, phone, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoginCode), args.Error(1)
}
