package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"printdesk/internal/config"
	"printdesk/internal/logging"
	"printdesk/internal/metrics"
	"printdesk/internal/model"
	"printdesk/internal/repository"
	repoMocks "printdesk/internal/repository/mocks"
	"printdesk/internal/storage"
	storeMocks "printdesk/internal/storage/mocks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func newSweeper(t *testing.T, docs *repoMocks.MockDocumentRepository, store *storeMocks.MockStorage) (*Sweeper, *metrics.Domain) {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	s := New(docs, store, config.RetentionConfig{MaxAge: 30 * 24 * time.Hour, Interval: time.Hour}, logging.Discard(), m)
	s.now = func() time.Time { return now }
	return s, m
}

func TestSweeper_RunOnce(t *testing.T) {
	ctx := context.Background()
	docs := new(repoMocks.MockDocumentRepository)
	store := new(storeMocks.MockStorage)
	s, m := newSweeper(t, docs, store)

	art := "artifacts/u/b.pdf"
	expired := []model.Document{
		{ID: "missing-file", StoragePath: "documents/u/a.pdf", CreatedAt: now.Add(-31 * 24 * time.Hour)},
		{ID: "broken-storage", StoragePath: "documents/u/c.pdf", CreatedAt: now.Add(-40 * 24 * time.Hour)},
		{ID: "healthy", StoragePath: "documents/u/b.docx", ArtifactPath: &art, CreatedAt: now.Add(-35 * 24 * time.Hour)},
	}
	docs.On("ListCreatedBefore", ctx, now.Add(-30*24*time.Hour), repository.Cursor{}, defaultBatch).Return(expired, nil).Once()

	store.On("Delete", ctx, "documents/u/a.pdf").Return(storage.ErrNotFound)
	docs.On("Delete", ctx, "missing-file").Return(nil)

	store.On("Delete", ctx, "documents/u/c.pdf").Return(errors.New("disk on fire"))

	store.On("Delete", ctx, "documents/u/b.docx").Return(nil)
	store.On("Delete", ctx, art).Return(nil)
	docs.On("Delete", ctx, "healthy").Return(nil)

	res, err := s.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, Result{Deleted: 2, Failed: 1}, res)
	docs.AssertNotCalled(t, "Delete", ctx, "broken-storage")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SweeperDeleted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SweeperFailures.WithLabelValues("storage")))
	docs.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSweeper_RecordFailureContinues(t *testing.T) {
	ctx := context.Background()
	docs := new(repoMocks.MockDocumentRepository)
	store := new(storeMocks.MockStorage)
	s, m := newSweeper(t, docs, store)

	docs.On("ListCreatedBefore", ctx, mock.Anything, repository.Cursor{}, defaultBatch).Return([]model.Document{
		{ID: "d1", StoragePath: "k1"},
		{ID: "d2", StoragePath: "k2"},
		{ID: "d3", StoragePath: "k3"},
	}, nil)
	store.On("Delete", ctx, mock.Anything).Return(nil)
	docs.On("Delete", ctx, "d1").Return(errors.New("deadlock"))
	docs.On("Delete", ctx, "d2").Return(repository.ErrNotFound)
	docs.On("Delete", ctx, "d3").Return(nil)

	res, err := s.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, Result{Deleted: 2, Failed: 1}, res)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SweeperFailures.WithLabelValues("database")))
}

func TestSweeper_Batches(t *testing.T) {
	ctx := context.Background()
	docs := new(repoMocks.MockDocumentRepository)
	store := new(storeMocks.MockStorage)
	s, _ := newSweeper(t, docs, store)
	s.batch = 2

	d2 := model.Document{ID: "d2", StoragePath: "k2", CreatedAt: now.Add(-40 * 24 * time.Hour)}
	docs.On("ListCreatedBefore", ctx, mock.Anything, repository.Cursor{}, 2).Return([]model.Document{{ID: "d1", StoragePath: "k1"}, d2}, nil).Once()
	docs.On("ListCreatedBefore", ctx, mock.Anything, repository.CursorOf(d2), 2).Return([]model.Document{{ID: "d3", StoragePath: "k3"}}, nil).Once()
	store.On("Delete", ctx, mock.Anything).Return(nil)
	docs.On("Delete", ctx, mock.Anything).Return(nil)

	res, err := s.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, res.Deleted)
	docs.AssertNumberOfCalls(t, "ListCreatedBefore", 2)
}

func TestSweeper_FailuresDoNotBlockNewerDocuments(t *testing.T) {
	ctx := context.Background()
	docs := new(repoMocks.MockDocumentRepository)
	store := new(storeMocks.MockStorage)
	s, m := newSweeper(t, docs, store)
	s.batch = 2

	stuck1 := model.Document{ID: "stuck-1", StoragePath: "k1", CreatedAt: now.Add(-50 * 24 * time.Hour)}
	stuck2 := model.Document{ID: "stuck-2", StoragePath: "k2", CreatedAt: now.Add(-45 * 24 * time.Hour)}
	good := model.Document{ID: "good", StoragePath: "k3", CreatedAt: now.Add(-31 * 24 * time.Hour)}

	docs.On("ListCreatedBefore", ctx, mock.Anything, repository.Cursor{}, 2).Return([]model.Document{stuck1, stuck2}, nil).Once()
	docs.On("ListCreatedBefore", ctx, mock.Anything, repository.CursorOf(stuck2), 2).Return([]model.Document{good}, nil).Once()
	store.On("Delete", ctx, "k1").Return(errors.New("permission denied"))
	store.On("Delete", ctx, "k2").Return(errors.New("permission denied"))
	store.On("Delete", ctx, "k3").Return(nil)
	docs.On("Delete", ctx, "good").Return(nil).Once()

	res, err := s.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, Result{Deleted: 1, Failed: 2}, res)
	docs.AssertCalled(t, "Delete", ctx, "good")
	docs.AssertNotCalled(t, "Delete", ctx, "stuck-1")
	docs.AssertNumberOfCalls(t, "ListCreatedBefore", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SweeperFailures.WithLabelValues("storage")))
	docs.AssertExpectations(t)
}

func TestSweeper_FailedRowCountedOncePerSweep(t *testing.T) {
	ctx := context.Background()
	docs := new(repoMocks.MockDocumentRepository)
	store := new(storeMocks.MockStorage)
	s, _ := newSweeper(t, docs, store)
	s.batch = 1

	d1 := model.Document{ID: "d1", StoragePath: "k1", CreatedAt: now.Add(-60 * 24 * time.Hour)}
	docs.On("ListCreatedBefore", ctx, mock.Anything, repository.Cursor{}, 1).Return([]model.Document{d1}, nil).Once()
	docs.On("ListCreatedBefore", ctx, mock.Anything, repository.CursorOf(d1), 1).Return([]model.Document{}, nil).Once()
	store.On("Delete", ctx, "k1").Return(errors.New("permission denied"))

	res, err := s.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
	docs.AssertNumberOfCalls(t, "ListCreatedBefore", 2)
}

func TestSweeper_ListError(t *testing.T) {
	ctx := context.Background()
	docs := new(repoMocks.MockDocumentRepository)
	s, _ := newSweeper(t, docs, new(storeMocks.MockStorage))
	docs.On("ListCreatedBefore", ctx, mock.Anything, repository.Cursor{}, defaultBatch).Return(nil, errors.New("db down"))

	_, err := s.RunOnce(ctx)

	assert.Error(t, err)
}

func TestSweeper_StartStop(t *testing.T) {
	docs := new(repoMocks.MockDocumentRepository)
	s, _ := newSweeper(t, docs, new(storeMocks.MockStorage))

	swept := make(chan struct{}, 1)
	docs.On("ListCreatedBefore", mock.Anything, mock.Anything, mock.Anything, defaultBatch).
		Run(func(mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		}).
		Return([]model.Document{}, nil)

	s.Start(context.Background())
	s.Start(context.Background())

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not run on start")
	}

	s.Stop()
	s.Stop()
}
