package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"printdesk/internal/logging"
	"printdesk/internal/model"
	"printdesk/internal/repository"
	repoMocks "printdesk/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	docA = "6f1c2a9e-3b7d-4c1e-9a0f-5d2e8b4c7a11"
	docB = "0d9e4f2a-8c3b-4e6d-b1a7-2f5c9e3d8b22"
)

func intPtr(n int) *int { return &n }

func newOrderService(orders *repoMocks.MockOrderRepository, docs *repoMocks.MockDocumentRepository) OrderService {
	svc := NewOrderService(orders, docs, Pricing{PricePerPage: 20, DuplexFactor: 0.8}, logging.Discard(), nil)
	svc.(*orderService).now = func() time.Time { return fixedNow }
	return svc
}

func echoOrder(_ context.Context, o *model.Order) *model.Order { return o }

func TestPricing_Total(t *testing.T) {
	p := Pricing{PricePerPage: 20, DuplexFactor: 0.8}

	assert.Equal(t, int64(200), p.Total([]PriceLine{{Pages: 5, Copies: 2}}, false))
	assert.Equal(t, int64(160), p.Total([]PriceLine{{Pages: 5, Copies: 2}}, true))
	assert.Equal(t, int64(0), p.Total(nil, true))

	// 3 pages * 1 copy * 15 = 45; 45 * 0.7 = 31.5 rounds up.
	odd := Pricing{PricePerPage: 15, DuplexFactor: 0.7}
	assert.Equal(t, int64(32), odd.Total([]PriceLine{{Pages: 3, Copies: 1}}, true))

	multi := p.Total([]PriceLine{{Pages: 5, Copies: 2}, {Pages: 1, Copies: 3}}, false)
	assert.Equal(t, int64(260), multi)
}

func TestOrderService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("prices and stores order", func(t *testing.T) {
		orders := new(repoMocks.MockOrderRepository)
		docs := new(repoMocks.MockDocumentRepository)
		svc := newOrderService(orders, docs)

		docs.On("FindOwned", ctx, "user-1", []string{docA}).
			Return([]model.Document{{ID: docA, OriginalName: "a.pdf", PageCount: intPtr(5)}}, nil)
		orders.On("Create", ctx, mock.MatchedBy(func(o *model.Order) bool {
			return o.OwnerID == "user-1" &&
				o.Status == model.OrderCreated &&
				o.TotalPrice == 160 &&
				o.Duplex &&
				len(o.Items) == 1 &&
				o.Items[0].DocumentID == docA &&
				o.Items[0].Copies == 2 &&
				o.Items[0].OrderID == o.ID &&
				o.CreatedAt.Equal(fixedNow)
		})).Return(echoOrder, nil)

		order, err := svc.Create(ctx, CreateOrderInput{
			OwnerID: "user-1",
			Items:   []OrderItemInput{{DocumentID: docA, Copies: 2}},
			Duplex:  true,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(160), order.TotalPrice)
		orders.AssertExpectations(t)
		docs.AssertExpectations(t)
	})

	t.Run("simplex price", func(t *testing.T) {
		orders := new(repoMocks.MockOrderRepository)
		docs := new(repoMocks.MockDocumentRepository)
		svc := newOrderService(orders, docs)

		docs.On("FindOwned", ctx, "user-1", []string{docA}).
			Return([]model.Document{{ID: docA, PageCount: intPtr(5)}}, nil)
		orders.On("Create", ctx, mock.Anything).Return(echoOrder, nil)

		order, err := svc.Create(ctx, CreateOrderInput{OwnerID: "user-1", Items: []OrderItemInput{{DocumentID: docA, Copies: 2}}})

		require.NoError(t, err)
		assert.Equal(t, int64(200), order.TotalPrice)
	})

	t.Run("ids are canonicalised before lookup", func(t *testing.T) {
		orders := new(repoMocks.MockOrderRepository)
		docs := new(repoMocks.MockDocumentRepository)
		svc := newOrderService(orders, docs)

		docs.On("FindOwned", ctx, "user-1", []string{docA}).
			Return([]model.Document{{ID: docA, PageCount: intPtr(2)}}, nil).Once()
		orders.On("Create", ctx, mock.Anything).Return(echoOrder, nil)

		in := CreateOrderInput{OwnerID: "user-1", Items: []OrderItemInput{{DocumentID: strings.ToUpper(docA), Copies: 1}}}
		order, err := svc.Create(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, docA, order.Items[0].DocumentID)
		assert.Equal(t, strings.ToUpper(docA), in.Items[0].DocumentID)
		docs.AssertExpectations(t)
	})

	validation := []struct {
		name  string
		items []OrderItemInput
	}{
		{"empty", nil},
		{"zero copies", []OrderItemInput{{DocumentID: docA, Copies: 0}}},
		{"negative copies", []OrderItemInput{{DocumentID: docA, Copies: -1}}},
		{"duplicate", []OrderItemInput{{DocumentID: docA, Copies: 1}, {DocumentID: docA, Copies: 2}}},
		{"missing id", []OrderItemInput{{Copies: 1}}},
		{"malformed id", []OrderItemInput{{DocumentID: "abc", Copies: 1}}},
		{"id with trailing junk", []OrderItemInput{{DocumentID: docA + "'; --", Copies: 1}}},
		{"duplicate in other case", []OrderItemInput{{DocumentID: docA, Copies: 1}, {DocumentID: strings.ToUpper(docA), Copies: 1}}},
	}
	for _, tt := range validation {
		t.Run("validation: "+tt.name, func(t *testing.T) {
			orders := new(repoMocks.MockOrderRepository)
			docs := new(repoMocks.MockDocumentRepository)
			svc := newOrderService(orders, docs)

			_, err := svc.Create(ctx, CreateOrderInput{OwnerID: "user-1", Items: tt.items})

			assert.ErrorIs(t, err, ErrValidation)
			docs.AssertNotCalled(t, "FindOwned", mock.Anything, mock.Anything, mock.Anything)
			orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("foreign document writes nothing", func(t *testing.T) {
		orders := new(repoMocks.MockOrderRepository)
		docs := new(repoMocks.MockDocumentRepository)
		svc := newOrderService(orders, docs)

		docs.On("FindOwned", ctx, "user-1", []string{docA, docB}).
			Return([]model.Document{{ID: docA, PageCount: intPtr(1)}}, nil)

		_, err := svc.Create(ctx, CreateOrderInput{
			OwnerID: "user-1",
			Items:   []OrderItemInput{{DocumentID: docA, Copies: 1}, {DocumentID: docB, Copies: 1}},
		})

		assert.ErrorIs(t, err, ErrOwnership)
		orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("repository failure", func(t *testing.T) {
		orders := new(repoMocks.MockOrderRepository)
		docs := new(repoMocks.MockDocumentRepository)
		svc := newOrderService(orders, docs)

		docs.On("FindOwned", ctx, "user-1", []string{docA}).Return([]model.Document{{ID: docA, PageCount: intPtr(1)}}, nil)
		orders.On("Create", ctx, mock.Anything).Return(nil, errors.New("tx aborted"))

		_, err := svc.Create(ctx, CreateOrderInput{OwnerID: "user-1", Items: []OrderItemInput{{DocumentID: docA, Copies: 1}}})

		assert.ErrorContains(t, err, "save order: tx aborted")
	})
}

func TestOrderService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("created to paid", func(t *testing.T) {
		orders := new(repoMocks.MockOrderRepository)
		svc := newOrderService(orders, new(repoMocks.MockDocumentRepository))
		orders.On("TransitionStatus", ctx, "o1", "user-1", model.OrderCreated, model.OrderPaid, fixedNow).
			Return(&model.Order{ID: "o1", Status: model.OrderPaid, UpdatedAt: fixedNow}, nil)

		order, err := svc.ConfirmPayment(ctx, "user-1", "o1")

		require.NoError(t, err)
		assert.Equal(t, model.OrderPaid, order.Status)
	})

	t.Run("second confirmation is invalid state", func(t *testing.T) {
		orders := new(repoMocks.MockOrderRepository)
		svc := newOrderService(orders, new(repoMocks.MockDocumentRepository))
		orders.On("TransitionStatus", ctx, "o1", "user-1", model.OrderCreated, model.OrderPaid, fixedNow).
			Return(nil, repository.ErrNotFound)
		orders.On("FindByOwner", ctx, "o1", "user-1").Return(&model.Order{ID: "o1", Status: model.OrderPaid}, nil)

		_, err := svc.ConfirmPayment(ctx, "user-1", "o1")

		assert.ErrorIs(t, err, ErrInvalidState)
		orders.AssertNumberOfCalls(t, "TransitionStatus", 1)
	})

	t.Run("absent order", func(t *testing.T) {
		orders := new(repoMocks.MockOrderRepository)
		svc := newOrderService(orders, new(repoMocks.MockDocumentRepository))
		orders.On("TransitionStatus", ctx, "o1", "user-2", model.OrderCreated, model.OrderPaid, fixedNow).
			Return(nil, repository.ErrNotFound)
		orders.On("FindByOwner", ctx, "o1", "user-2").Return(nil, repository.ErrNotFound)

		_, err := svc.ConfirmPayment(ctx, "user-2", "o1")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOrderService_GetListDelete(t *testing.T) {
	ctx := context.Background()
	orders := new(repoMocks.MockOrderRepository)
	svc := newOrderService(orders, new(repoMocks.MockDocumentRepository))

	items := []model.OrderItem{{ID: "i1", DocumentID: "d1", Copies: 2}}
	orders.On("FindByOwner", ctx, "o1", "user-1").Return(&model.Order{ID: "o1"}, nil)
	orders.On("Items", ctx, "o1").Return(items, nil)
	orders.On("FindByOwner", ctx, "o2", "user-1").Return(nil, repository.ErrNotFound)
	orders.On("ListByOwner", ctx, "user-1", repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Order]{Items: []model.Order{{ID: "o1"}}, Total: 1}, nil)
	orders.On("Delete", ctx, "o1", "user-1").Return(nil)
	orders.On("Delete", ctx, "o2", "user-1").Return(repository.ErrNotFound)

	order, err := svc.Get(ctx, "user-1", "o1")
	require.NoError(t, err)
	assert.Equal(t, items, order.Items)

	_, err = svc.Get(ctx, "user-1", "o2")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx, "user-1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	assert.NoError(t, svc.Delete(ctx, "user-1", "o1"))
	assert.ErrorIs(t, svc.Delete(ctx, "user-1", "o2"), ErrNotFound)
	orders.AssertExpectations(t)
}
