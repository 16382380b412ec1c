package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"printdesk/internal/storage"
)

// rollback collects compensating storage deletes for a multi-step write.
// run executes them in reverse order unless release was called first.
type rollback struct {
	store    storage.Storage
	log      logrus.FieldLogger
	keys     []string
	released bool
}

func newRollback(store storage.Storage, log logrus.FieldLogger) *rollback {
	return &rollback{store: store, log: log}
}

func (r *rollback) add(key string) {
	r.keys = append(r.keys, key)
}

func (r *rollback) release() {
	r.released = true
}

// run ignores cancellation of ctx so a client disconnect cannot strand objects.
func (r *rollback) run(ctx context.Context) {
	if r.released {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for i := len(r.keys) - 1; i >= 0; i-- {
		key := r.keys[i]
		if err := r.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.log.WithFields(logrus.Fields{
				"event": "rollback_delete_failed",
				"key":   key,
			}).WithError(err).Error("compensating delete failed")
		}
	}
	r.keys = nil
}
