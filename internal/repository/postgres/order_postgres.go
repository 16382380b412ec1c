package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"printdesk/internal/model"
	"printdesk/internal/repository"
)

// OrderPostgres is a PostgreSQL implementation of repository.OrderRepository.
type OrderPostgres struct {
	db *sql.DB
}

// NewOrderPostgres creates a new OrderPostgres repository.
func NewOrderPostgres(db *sql.DB) *OrderPostgres {
	return &OrderPostgres{db: db}
}

var _ repository.OrderRepository = (*OrderPostgres)(nil)

const orderColumns = `id, owner_id, status, total_price, duplex, created_at, updated_at`

func scanOrder(s rowScanner) (*model.Order, error) {
	var (
		o      model.Order
		status string
	)
	if err := s.Scan(
		&o.ID,
		&o.OwnerID,
		&status,
		&o.TotalPrice,
		&o.Duplex,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	return &o, nil
}

// Create inserts the order header and its items inside one transaction.
func (r *OrderPostgres) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const qOrder = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + orderColumns
	stored, err := scanOrder(tx.QueryRowContext(ctx, qOrder,
		order.ID,
		order.OwnerID,
		string(order.Status),
		order.TotalPrice,
		order.Duplex,
		order.CreatedAt,
		order.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	const qItem = `
		INSERT INTO order_files (id, order_id, document_id, copies, position)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, it := range order.Items {
		if _, err := tx.ExecContext(ctx, qItem, it.ID, stored.ID, it.DocumentID, it.Copies, it.Position); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	stored.Items = order.Items
	return stored, nil
}

// FindByOwner fetches an order header scoped to its owner.
func (r *OrderPostgres) FindByOwner(ctx context.Context, id, ownerID string) (*model.Order, error) {
	const q = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND owner_id = $2
	`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

// ListByOwner returns order headers newest first with a total count.
func (r *OrderPostgres) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Order], error) {
	const qCount = `SELECT COUNT(*) FROM orders WHERE owner_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, ownerID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, ownerID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Order]{Items: items, Total: total}, nil
}

// Items returns link rows joined with document metadata in position order.
func (r *OrderPostgres) Items(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	const q = `
		SELECT oi.id, oi.order_id, oi.document_id, oi.copies, oi.position, oi.printed_at,
		       d.original_name, COALESCE(d.page_count, 0), d.artifact_path
		FROM order_files oi
		JOIN documents d ON d.id = oi.document_id
		WHERE oi.order_id = $1
		ORDER BY oi.position ASC
	`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.OrderItem, 0)
	for rows.Next() {
		var (
			it       model.OrderItem
			printed  sql.NullTime
			artifact sql.NullString
		)
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.DocumentID,
			&it.Copies,
			&it.Position,
			&printed,
			&it.OriginalName,
			&it.PageCount,
			&artifact,
		); err != nil {
			return nil, err
		}
		if printed.Valid {
			t := printed.Time
			it.PrintedAt = &t
		}
		if artifact.Valid {
			a := artifact.String
			it.ArtifactPath = &a
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// TransitionStatus is a compare-and-set on the status column.
func (r *OrderPostgres) TransitionStatus(ctx context.Context, id, ownerID string, from, to model.OrderStatus, at time.Time) (*model.Order, error) {
	const q = `
		UPDATE orders SET status = $4, updated_at = $5
		WHERE id = $1 AND owner_id = $2 AND status = $3
		RETURNING ` + orderColumns
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id, ownerID, string(from), string(to), at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

// MarkItemPrinted stamps printed_at on one link row.
func (r *OrderPostgres) MarkItemPrinted(ctx context.Context, itemID string, at time.Time) error {
	const q = `UPDATE order_files SET printed_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, itemID, at)
	return err
}

// Delete removes link rows and then the header, both or neither.
func (r *OrderPostgres) Delete(ctx context.Context, id, ownerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const qLinks = `
		DELETE FROM order_files
		WHERE order_id IN (SELECT id FROM orders WHERE id = $1 AND owner_id = $2)
	`
	if _, err := tx.ExecContext(ctx, qLinks, id, ownerID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	const qOrder = `DELETE FROM orders WHERE id = $1 AND owner_id = $2`
	res, err := tx.ExecContext(ctx, qOrder, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit()
}
