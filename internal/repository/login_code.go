package repository

import (
	"context"

	"printdesk/internal/model"
)

// LoginCodeRepository stores one-time codes for the authentication component.
type LoginCodeRepository interface {
	Create(ctx context.Context, code *model.LoginCode) (*model.LoginCode, error)
}
