package mocks

import (
	"context"
	"time"

	"printdesk/internal/model"
	"printdesk/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	args := m.Called(ctx, order)
	if f, ok := args.Get(0).(func(context.Context, *model.Order) *model.Order); ok {
		return f(ctx, order), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOwner(ctx context.Context, id, ownerID string) (*model.Order, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Order], error) {
	args := m.Called(ctx, ownerID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Order]), args.Error(1)
}

func (m *MockOrderRepository) Items(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) TransitionStatus(ctx context.Context, id, ownerID string, from, to model.OrderStatus, at time.Time) (*model.Order, error) {
	args := m.Called(ctx, id, ownerID, from, to, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) MarkItemPrinted(ctx context.Context, itemID string, at time.Time) error {
	args := m.Called(ctx, itemID, at)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}
