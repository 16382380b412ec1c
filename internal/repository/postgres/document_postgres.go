package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"printdesk/internal/model"
	"printdesk/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, owner_id, original_name, stored_name, storage_path, size, format, page_count, artifact_path, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (*model.Document, error) {
	var (
		d        model.Document
		pages    sql.NullInt64
		artifact sql.NullString
	)
	if err := s.Scan(
		&d.ID,
		&d.OwnerID,
		&d.OriginalName,
		&d.StoredName,
		&d.StoragePath,
		&d.Size,
		&d.Format,
		&pages,
		&artifact,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if pages.Valid {
		n := int(pages.Int64)
		d.PageCount = &n
	}
	if artifact.Valid {
		a := artifact.String
		d.ArtifactPath = &a
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + documentColumns

	var pages any
	if doc.PageCount != nil {
		pages = int64(*doc.PageCount)
	}
	var artifact any
	if doc.ArtifactPath != nil {
		artifact = *doc.ArtifactPath
	}

	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OwnerID,
		doc.OriginalName,
		doc.StoredName,
		doc.StoragePath,
		doc.Size,
		doc.Format,
		pages,
		artifact,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByOwner fetches a single document by id, scoped to its owner.
func (r *DocumentPostgres) FindByOwner(ctx context.Context, id, ownerID string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND owner_id = $2
	`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// FindOwned resolves the requested ids that belong to ownerID with a single query.
func (r *DocumentPostgres) FindOwned(ctx context.Context, ownerID string, ids []string) ([]model.Document, error) {
	if len(ids) == 0 {
		return []model.Document{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, ownerID)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	q := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1 AND id IN (` + strings.Join(placeholders, ", ") + `)
	`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// ListByOwner returns the owner's documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE owner_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, ownerID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, ownerID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// SumSizeByOwner returns the bytes currently held by ownerID.
func (r *DocumentPostgres) SumSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	const q = `SELECT COALESCE(SUM(size), 0) FROM documents WHERE owner_id = $1`
	var total int64
	if err := r.db.QueryRowContext(ctx, q, ownerID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListCreatedBefore returns up to limit documents older than cutoff, oldest first,
// positioned strictly after the keyset cursor.
func (r *DocumentPostgres) ListCreatedBefore(ctx context.Context, cutoff time.Time, after repository.Cursor, limit int) ([]model.Document, error) {
	const first = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE created_at < $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`
	const next = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE created_at < $1 AND (created_at, id) > ($2, $3)
		ORDER BY created_at ASC, id ASC
		LIMIT $4
	`
	var (
		rows *sql.Rows
		err  error
	)
	if after.IsZero() {
		rows, err = r.db.QueryContext(ctx, first, cutoff, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, next, cutoff, after.CreatedAt, after.ID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// Rename updates original_name of an owned document.
func (r *DocumentPostgres) Rename(ctx context.Context, id, ownerID, name string) (*model.Document, error) {
	const q = `
		UPDATE documents SET original_name = $3
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + documentColumns
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id, ownerID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// ClearArtifact sets artifact_path to NULL.
func (r *DocumentPostgres) ClearArtifact(ctx context.Context, id string) error {
	const q = `UPDATE documents SET artifact_path = NULL WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// Delete removes a document by id. Order links cascade in the schema.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func collectDocuments(rows *sql.Rows) ([]model.Document, error) {
	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
