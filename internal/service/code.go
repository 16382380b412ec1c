package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"printdesk/internal/model"
	"printdesk/internal/repository"
)

var (
	phonePattern = regexp.MustCompile(`^\+?\d{7,15}$`)
	codePattern  = regexp.MustCompile(`^\d{4,8}$`)
)

// LoginCodeTTL is how long a generated code stays valid.
const LoginCodeTTL = 5 * time.Minute

// CodeService stores one-time login codes handed out by the messaging front-end.
type CodeService interface {
	Generate(ctx context.Context, phone, code string) (*model.LoginCode, error)
}

type codeService struct {
	repo repository.LoginCodeRepository
	now  func() time.Time
}

// NewCodeService constructs a new CodeService.
func NewCodeService(repo repository.LoginCodeRepository) CodeService {
	return &codeService{repo: repo, now: time.Now}
}

func (s *codeService) Generate(ctx context.Context, phone, code string) (*model.LoginCode, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if !phonePattern.MatchString(phone) {
		return nil, fmt.Errorf("%w: invalid phone format", ErrValidation)
	}
	if !codePattern.MatchString(code) {
		return nil, fmt.Errorf("%w: invalid code format", ErrValidation)
	}
	now := s.now().UTC()
	lc, err := s.repo.Create(ctx, &model.LoginCode{
		ID:        uuid.New().String(),
		Phone:     phone,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(LoginCodeTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("save login code: %w", err)
	}
	return lc, nil
}
