package model

import "time"

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
	OrderPaid    OrderStatus = "paid"
	OrderClosed  OrderStatus = "closed"
)

// Order is a priced request to print a set of documents.
// TotalPrice is in minor currency units and is fixed at creation.
type Order struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"owner_id"`
	Status     OrderStatus `json:"status"`
	TotalPrice int64       `json:"total_price"`
	Duplex     bool        `json:"duplex"`
	Items      []OrderItem `json:"items,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderItem links a document to an order with a copy count.
type OrderItem struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"order_id"`
	DocumentID   string     `json:"document_id"`
	Copies       int        `json:"copies"`
	Position     int        `json:"position"`
	PrintedAt    *time.Time `json:"printed_at,omitempty"`
	OriginalName string     `json:"original_name,omitempty"`
	PageCount    int        `json:"page_count,omitempty"`
	ArtifactPath *string    `json:"-"`
}

// Printed reports whether the item was already sent to the printer.
func (i *OrderItem) Printed() bool {
	return i.PrintedAt != nil
}
