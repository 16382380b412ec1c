package service

import (
	"context"
	"fmt"

	"printdesk/internal/repository"
)

// QuotaUsage is the owner's storage consumption in bytes.
type QuotaUsage struct {
	Limit     int64 `json:"limit"`
	Used      int64 `json:"used"`
	Available int64 `json:"available"`
}

// QuotaLedger enforces the per-user storage cap from the document records.
//
// The check and the subsequent write are not linearized, so two concurrent uploads
// can both pass. The cap is a soft limit.
type QuotaLedger struct {
	repo     repository.DocumentRepository
	capBytes int64
}

// NewQuotaLedger builds a ledger enforcing capBytes per owner.
func NewQuotaLedger(repo repository.DocumentRepository, capBytes int64) *QuotaLedger {
	return &QuotaLedger{repo: repo, capBytes: capBytes}
}

// CheckAndReserve fails with ErrQuotaExceeded when used+incoming would pass the cap.
func (q *QuotaLedger) CheckAndReserve(ctx context.Context, ownerID string, incoming int64) error {
	used, err := q.repo.SumSizeByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("read quota usage: %w", err)
	}
	if used+incoming > q.capBytes {
		return fmt.Errorf("%w: %d of %d bytes used, %d requested", ErrQuotaExceeded, used, q.capBytes, incoming)
	}
	return nil
}

// Usage reports the cap, the bytes held and what is left. Available never goes negative.
func (q *QuotaLedger) Usage(ctx context.Context, ownerID string) (QuotaUsage, error) {
	used, err := q.repo.SumSizeByOwner(ctx, ownerID)
	if err != nil {
		return QuotaUsage{}, fmt.Errorf("read quota usage: %w", err)
	}
	return QuotaUsage{
		Limit:     q.capBytes,
		Used:      used,
		Available: max(q.capBytes-used, 0),
	}, nil
}
