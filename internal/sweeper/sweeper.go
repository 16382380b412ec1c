package sweeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"printdesk/internal/config"
	"printdesk/internal/metrics"
	"printdesk/internal/model"
	"printdesk/internal/repository"
	"printdesk/internal/storage"
)

const defaultBatch = 200

// Result summarizes one sweep.
type Result struct {
	Deleted int
	Failed  int
}

// Sweeper deletes documents older than the retention age on a fixed interval.
// Each document is handled on its own; failures are logged and counted and the
// sweep moves on.
type Sweeper struct {
	docs     repository.DocumentRepository
	store    storage.Storage
	maxAge   time.Duration
	interval time.Duration
	batch    int
	log      logrus.FieldLogger
	metrics  *metrics.Domain
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Sweeper from the retention settings.
func New(docs repository.DocumentRepository, store storage.Storage, cfg config.RetentionConfig, log logrus.FieldLogger, m *metrics.Domain) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Sweeper{
		docs:     docs,
		store:    store,
		maxAge:   cfg.MaxAge,
		interval: cfg.Interval,
		batch:    defaultBatch,
		log:      log.WithField("component", "sweeper"),
		metrics:  m,
		now:      time.Now,
	}
}

// Start runs a sweep immediately and then every interval until Stop is called or
// ctx is cancelled. Calling Start twice is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
	s.log.WithFields(logrus.Fields{
		"event":    "sweeper_started",
		"interval": s.interval.String(),
		"max_age":  s.maxAge.String(),
	}).Info("retention sweeper started")
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.WithField("event", "sweeper_stopped").Info("retention sweeper stopped")
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	res, err := s.RunOnce(ctx)
	s.metrics.SweepDuration(time.Since(start).Seconds())
	entry := s.log.WithFields(logrus.Fields{
		"event":   "sweep_finished",
		"deleted": res.Deleted,
		"failed":  res.Failed,
	})
	if err != nil {
		entry.WithError(err).Error("sweep aborted")
		return
	}
	if res.Deleted > 0 || res.Failed > 0 {
		entry.Info("sweep finished")
	}
}

// RunOnce purges every document created before now minus the retention age.
// The returned error covers only listing failures; per-document failures are counted.
// Pages advance by keyset, so rows that fail stay behind the cursor until the next sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	var (
		res   Result
		after repository.Cursor
	)
	cutoff := s.now().UTC().Add(-s.maxAge)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		docs, err := s.docs.ListCreatedBefore(ctx, cutoff, after, s.batch)
		if err != nil {
			s.metrics.SweepFailed("list")
			return res, err
		}
		for _, d := range docs {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			if s.purge(ctx, d) {
				res.Deleted++
			} else {
				res.Failed++
			}
			after = repository.CursorOf(d)
		}
		if len(docs) < s.batch {
			return res, nil
		}
	}
}

func (s *Sweeper) purge(ctx context.Context, d model.Document) bool {
	log := s.log.WithFields(logrus.Fields{"document_id": d.ID, "owner_id": d.OwnerID})

	keys := []string{d.StoragePath}
	if d.HasArtifact() {
		keys = append(keys, *d.ArtifactPath)
	}
	for _, key := range keys {
		err := s.store.Delete(ctx, key)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrNotFound):
			log.WithFields(logrus.Fields{"event": "object_missing", "key": key}).Warn("stored object already gone")
		default:
			s.metrics.SweepFailed("storage")
			log.WithFields(logrus.Fields{"event": "sweep_storage_failed", "key": key}).WithError(err).Error("could not delete stored object")
			return false
		}
	}

	if err := s.docs.Delete(ctx, d.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.WithField("event", "record_gone").Debug("record removed concurrently")
			return true
		}
		s.metrics.SweepFailed("database")
		log.WithField("event", "sweep_record_failed").WithError(err).Error("could not delete record")
		return false
	}
	s.metrics.SweptDocument()
	log.WithFields(logrus.Fields{"event": "document_expired", "created_at": d.CreatedAt}).Info("expired document removed")
	return true
}
