package repository

import (
	"context"
	"time"

	"printdesk/internal/model"
)

// OrderRepository persists orders and their document links.
type OrderRepository interface {
	// Create writes the order header and all items in one transaction.
	Create(ctx context.Context, order *model.Order) (*model.Order, error)

	// FindByOwner returns the order header if it belongs to ownerID.
	FindByOwner(ctx context.Context, id, ownerID string) (*model.Order, error)

	// ListByOwner returns the owner's orders, newest first, without items.
	ListByOwner(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.Order], error)

	// Items returns the order's links joined with their documents, in order position.
	Items(ctx context.Context, orderID string) ([]model.OrderItem, error)

	// TransitionStatus moves an owned order from one status to another in a single
	// conditional update. It returns ErrNotFound when no row matched.
	TransitionStatus(ctx context.Context, id, ownerID string, from, to model.OrderStatus, at time.Time) (*model.Order, error)

	// MarkItemPrinted stamps printed_at on a link row.
	MarkItemPrinted(ctx context.Context, itemID string, at time.Time) error

	// Delete removes the links and then the header in one transaction.
	// It returns ErrNotFound if the order does not exist for ownerID.
	Delete(ctx context.Context, id, ownerID string) error
}
