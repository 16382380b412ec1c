package postgres

import (
	"context"
	"database/sql"

	"printdesk/internal/model"
	"printdesk/internal/repository"
)

// LoginCodePostgres stores login codes handed over by the messaging front-end.
type LoginCodePostgres struct {
	db *sql.DB
}

// NewLoginCodePostgres creates a new LoginCodePostgres repository.
func NewLoginCodePostgres(db *sql.DB) *LoginCodePostgres {
	return &LoginCodePostgres{db: db}
}

var _ repository.LoginCodeRepository = (*LoginCodePostgres)(nil)

// Create inserts a login code row.
func (r *LoginCodePostgres) Create(ctx context.Context, c *model.LoginCode) (*model.LoginCode, error) {
	const q = `
		INSERT INTO login_codes (id, phone, code, created_at, expires_at, is_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, phone, code, created_at, expires_at, is_used
	`
	var out model.LoginCode
	if err := r.db.QueryRowContext(ctx, q, c.ID, c.Phone, c.Code, c.CreatedAt, c.ExpiresAt, c.Used).Scan(
		&out.ID,
		&out.Phone,
		&out.Code,
		&out.CreatedAt,
		&out.ExpiresAt,
		&out.Used,
	); err != nil {
		return nil, err
	}
	return &out, nil
}
