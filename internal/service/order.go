package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"printdesk/internal/metrics"
	"printdesk/internal/model"
	"printdesk/internal/repository"
)

// OrderItemInput is one requested document with its copy count.
type OrderItemInput struct {
	DocumentID string `json:"document_id"`
	Copies     int    `json:"copies"`
}

// CreateOrderInput is the request to quote and persist an order.
type CreateOrderInput struct {
	OwnerID string
	Items   []OrderItemInput
	Duplex  bool
}

// OrderListResult is the service-level DTO for paginated orders.
type OrderListResult struct {
	Items []model.Order `json:"data"`
	Total int           `json:"total"`
}

// OrderService prices orders and drives the created -> paid transition.
type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (*model.Order, error)
	ConfirmPayment(ctx context.Context, ownerID, id string) (*model.Order, error)
	Get(ctx context.Context, ownerID, id string) (*model.Order, error)
	List(ctx context.Context, ownerID string, limit, offset int) (*OrderListResult, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type orderService struct {
	orders  repository.OrderRepository
	docs    repository.DocumentRepository
	pricing Pricing
	log     logrus.FieldLogger
	metrics *metrics.Domain
	now     func() time.Time
}

// NewOrderService constructs a new OrderService.
func NewOrderService(
	orders repository.OrderRepository,
	docs repository.DocumentRepository,
	pricing Pricing,
	log logrus.FieldLogger,
	m *metrics.Domain,
) OrderService {
	return &orderService{
		orders:  orders,
		docs:    docs,
		pricing: pricing,
		log:     log.WithField("component", "orders"),
		metrics: m,
		now:     time.Now,
	}
}

// Create validates the items, checks ownership of every document in one query and
// writes the priced order. Nothing is written unless every document is owned.
func (s *orderService) Create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one document is required", ErrValidation)
	}
	items := make([]OrderItemInput, len(in.Items))
	ids := make([]string, 0, len(in.Items))
	seen := make(map[string]bool, len(in.Items))
	for i, it := range in.Items {
		if it.DocumentID == "" {
			return nil, fmt.Errorf("%w: document_id is required", ErrValidation)
		}
		parsed, err := uuid.Parse(it.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("%w: document_id %q is not a valid id", ErrValidation, it.DocumentID)
		}
		id := parsed.String()
		if it.Copies < 1 {
			return nil, fmt.Errorf("%w: copies must be positive for %s", ErrValidation, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate document %s", ErrValidation, id)
		}
		seen[id] = true
		ids = append(ids, id)
		items[i] = OrderItemInput{DocumentID: id, Copies: it.Copies}
	}

	owned, err := s.docs.FindOwned(ctx, in.OwnerID, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve documents: %w", err)
	}
	if len(owned) != len(ids) {
		return nil, fmt.Errorf("%w: %d of %d documents resolved", ErrOwnership, len(owned), len(ids))
	}
	byID := make(map[string]model.Document, len(owned))
	for _, d := range owned {
		byID[d.ID] = d
	}

	now := s.now().UTC()
	order := &model.Order{
		ID:        uuid.New().String(),
		OwnerID:   in.OwnerID,
		Status:    model.OrderCreated,
		Duplex:    in.Duplex,
		CreatedAt: now,
		UpdatedAt: now,
	}
	lines := make([]PriceLine, 0, len(items))
	for i, it := range items {
		d, ok := byID[it.DocumentID]
		if !ok {
			return nil, fmt.Errorf("%w: document %s", ErrOwnership, it.DocumentID)
		}
		if d.PageCount == nil {
			return nil, fmt.Errorf("%w: document %s has no page count", ErrValidation, d.ID)
		}
		lines = append(lines, PriceLine{Pages: d.Pages(), Copies: it.Copies})
		order.Items = append(order.Items, model.OrderItem{
			ID:           uuid.New().String(),
			OrderID:      order.ID,
			DocumentID:   d.ID,
			Copies:       it.Copies,
			Position:     i,
			OriginalName: d.OriginalName,
			PageCount:    d.Pages(),
		})
	}
	order.TotalPrice = s.pricing.Total(lines, in.Duplex)

	stored, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	s.metrics.OrderCreated()
	s.log.WithFields(logrus.Fields{
		"event":       "order_created",
		"order_id":    stored.ID,
		"owner_id":    stored.OwnerID,
		"total_price": stored.TotalPrice,
		"items":       len(order.Items),
	}).Info("order created")
	return stored, nil
}

// ConfirmPayment moves a created order to paid with one conditional update.
func (s *orderService) ConfirmPayment(ctx context.Context, ownerID, id string) (*model.Order, error) {
	order, err := transition(ctx, s.orders, id, ownerID, model.OrderCreated, model.OrderPaid, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"event": "order_paid", "order_id": id}).Info("payment confirmed")
	return order, nil
}

func (s *orderService) Get(ctx context.Context, ownerID, id string) (*model.Order, error) {
	order, err := s.orders.FindByOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := s.orders.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *orderService) List(ctx context.Context, ownerID string, limit, offset int) (*OrderListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.orders.ListByOwner(ctx, ownerID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes the order and its links in any state. Documents are untouched.
func (s *orderService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.orders.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// transition applies a compare-and-set status change. When nothing matched it reads
// the order back to tell a missing order from one in the wrong state.
func transition(ctx context.Context, orders repository.OrderRepository, id, ownerID string, from, to model.OrderStatus, at time.Time) (*model.Order, error) {
	order, err := orders.TransitionStatus(ctx, id, ownerID, from, to, at)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	current, ferr := orders.FindByOwner(ctx, id, ownerID)
	if ferr != nil {
		if errors.Is(ferr, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ferr
	}
	return nil, fmt.Errorf("%w: order is %s, want %s", ErrInvalidState, current.Status, from)
}
