package repository

import (
	"context"
	"errors"
	"time"

	"printdesk/internal/model"
)

// ErrNotFound is returned when a row addressed by id (and owner) does not exist.
var ErrNotFound = errors.New("record not found")

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByOwner returns a document by id if it belongs to ownerID.
	FindByOwner(ctx context.Context, id, ownerID string) (*model.Document, error)

	// FindOwned returns the subset of ids owned by ownerID.
	FindOwned(ctx context.Context, ownerID string, ids []string) ([]model.Document, error)

	// ListByOwner returns a paginated list of the owner's documents.
	ListByOwner(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.Document], error)

	// SumSizeByOwner returns the total bytes held by ownerID.
	SumSizeByOwner(ctx context.Context, ownerID string) (int64, error)

	// ListCreatedBefore returns documents created before cutoff, oldest first,
	// starting strictly after the given cursor. A zero cursor starts at the oldest row.
	ListCreatedBefore(ctx context.Context, cutoff time.Time, after Cursor, limit int) ([]model.Document, error)

	// Rename updates the display name of an owned document.
	Rename(ctx context.Context, id, ownerID, name string) (*model.Document, error)

	// ClearArtifact drops the artifact pointer after the artifact was removed.
	ClearArtifact(ctx context.Context, id string) error

	// Delete removes a document by id. It returns ErrNotFound if nothing was deleted.
	Delete(ctx context.Context, id string) error
}

// Cursor is a keyset position in (created_at, id) order.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// IsZero reports whether the cursor points before the first row.
func (c Cursor) IsZero() bool { return c.ID == "" }

// CursorOf returns the position of d.
func CursorOf(d model.Document) Cursor {
	return Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
