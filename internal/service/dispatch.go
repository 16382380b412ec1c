package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"printdesk/internal/metrics"
	"printdesk/internal/model"
	"printdesk/internal/printer"
	"printdesk/internal/repository"
	"printdesk/internal/storage"
)

// DispatchService sends a paid order to the printer and closes it.
type DispatchService interface {
	Dispatch(ctx context.Context, ownerID, id string) (*model.Order, error)
}

// A printed item whose stamp cannot be written would print again on retry.
const stampAttempts = 3

type dispatchService struct {
	orders       repository.OrderRepository
	docs         repository.DocumentRepository
	store        storage.Storage
	printer      printer.Printer
	log          logrus.FieldLogger
	metrics      *metrics.Domain
	now          func() time.Time
	stampBackoff time.Duration
}

// NewDispatchService constructs a new DispatchService.
func NewDispatchService(
	orders repository.OrderRepository,
	docs repository.DocumentRepository,
	store storage.Storage,
	p printer.Printer,
	log logrus.FieldLogger,
	m *metrics.Domain,
) DispatchService {
	return &dispatchService{
		orders:       orders,
		docs:         docs,
		store:        store,
		printer:      p,
		log:          log.WithField("component", "dispatch"),
		metrics:      m,
		now:          time.Now,
		stampBackoff: 200 * time.Millisecond,
	}
}

// Dispatch prints every item not yet marked printed, in position order.
//
// Each successful print is stamped on its link row before the artifact is deleted,
// so a retry after a printer failure resumes with the first unprinted item.
// The order is closed only after every item is stamped.
func (s *dispatchService) Dispatch(ctx context.Context, ownerID, id string) (*model.Order, error) {
	order, err := s.orders.FindByOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if order.Status != model.OrderPaid {
		return nil, fmt.Errorf("%w: order is %s, want %s", ErrInvalidState, order.Status, model.OrderPaid)
	}

	items, err := s.orders.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order has no documents left", ErrMissingArtifact)
	}
	var pending []model.OrderItem
	for _, it := range items {
		if it.Printed() {
			continue
		}
		if it.ArtifactPath == nil || *it.ArtifactPath == "" {
			return nil, fmt.Errorf("%w: document %s", ErrMissingArtifact, it.DocumentID)
		}
		pending = append(pending, it)
	}

	log := s.log.WithFields(logrus.Fields{"order_id": id, "owner_id": ownerID})
	for _, it := range pending {
		if err := s.printItem(ctx, order, it); err != nil {
			log.WithFields(logrus.Fields{
				"event":       "print_failed",
				"document_id": it.DocumentID,
			}).WithError(err).Error("dispatch aborted")
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"event":       "item_printed",
			"document_id": it.DocumentID,
			"copies":      it.Copies,
		}).Info("document printed")
	}

	closed, err := transition(ctx, s.orders, id, ownerID, model.OrderPaid, model.OrderClosed, s.now().UTC())
	if err != nil {
		return nil, err
	}
	closed.Items, err = s.orders.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderDispatched()
	log.WithField("event", "order_closed").Info("order dispatched")
	return closed, nil
}

func (s *dispatchService) printItem(ctx context.Context, order *model.Order, it model.OrderItem) error {
	key := *it.ArtifactPath
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: document %s", ErrMissingArtifact, it.DocumentID)
		}
		return fmt.Errorf("read artifact: %w", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}

	if err := s.printer.Print(ctx, printer.Job{
		Name:   it.OriginalName,
		Data:   data,
		Copies: it.Copies,
		Duplex: order.Duplex,
	}); err != nil {
		s.metrics.PrintJob("error")
		return fmt.Errorf("%w: %w", ErrPrinter, err)
	}
	s.metrics.PrintJob("ok")

	if err := s.stampPrinted(ctx, it); err != nil {
		s.metrics.PrintJob("unrecorded")
		s.log.WithFields(logrus.Fields{
			"event":       "print_unrecorded",
			"order_id":    order.ID,
			"item_id":     it.ID,
			"document_id": it.DocumentID,
		}).WithError(err).Error("item printed but not recorded; artifact kept for reconciliation")
		return fmt.Errorf("record printed item %s: %w", it.ID, err)
	}

	// The print already happened; cleanup failures are logged, not returned.
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.WithFields(logrus.Fields{"event": "artifact_delete_failed", "key": key}).WithError(err).Warn("artifact left in storage")
		return nil
	}
	if err := s.docs.ClearArtifact(ctx, it.DocumentID); err != nil {
		s.log.WithFields(logrus.Fields{"event": "artifact_clear_failed", "document_id": it.DocumentID}).WithError(err).Warn("artifact pointer not cleared")
	}
	return nil
}

// stampPrinted marks the item printed, retrying with a doubling backoff.
func (s *dispatchService) stampPrinted(ctx context.Context, it model.OrderItem) error {
	at := s.now().UTC()
	backoff := s.stampBackoff
	var err error
	for attempt := 1; attempt <= stampAttempts; attempt++ {
		if err = s.orders.MarkItemPrinted(ctx, it.ID, at); err == nil {
			return nil
		}
		if attempt == stampAttempts {
			break
		}
		s.log.WithFields(logrus.Fields{
			"event":   "stamp_retry",
			"item_id": it.ID,
			"attempt": attempt,
		}).WithError(err).Warn("could not record printed item, retrying")
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
