package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"printdesk/internal/model"
	"printdesk/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docCols = []string{"id", "owner_id", "original_name", "stored_name", "storage_path", "size", "format", "page_count", "artifact_path", "created_at"}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	pages := 5
	artifact := "artifacts/u1/file.pdf"
	doc := &model.Document{
		ID:           "test-uuid",
		OwnerID:      "u1",
		OriginalName: "file.docx",
		StoredName:   "2024_file.docx",
		StoragePath:  "documents/u1/2024_file.docx",
		Size:         123,
		Format:       "docx",
		PageCount:    &pages,
		ArtifactPath: &artifact,
		CreatedAt:    now,
	}

	rows := sqlmock.NewRows(docCols).
		AddRow(doc.ID, doc.OwnerID, doc.OriginalName, doc.StoredName, doc.StoragePath, doc.Size, doc.Format, 5, artifact, now)

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.ID, doc.OwnerID, doc.OriginalName, doc.StoredName, doc.StoragePath, doc.Size, doc.Format, int64(5), artifact, now).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, doc)

	require.NoError(t, err)
	assert.Equal(t, doc.ID, result.ID)
	assert.Equal(t, 5, result.Pages())
	assert.True(t, result.HasArtifact())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(docCols).
			AddRow("test-id", "u1", "a.pdf", "s_a.pdf", "documents/u1/s_a.pdf", 100, "pdf", nil, nil, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = (.+) AND owner_id = (.+)").
			WithArgs("test-id", "u1").
			WillReturnRows(rows)

		doc, err := repo.FindByOwner(ctx, "test-id", "u1")

		require.NoError(t, err)
		assert.Equal(t, "test-id", doc.ID)
		assert.Nil(t, doc.PageCount)
		assert.False(t, doc.HasArtifact())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("missing", "u1").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByOwner(ctx, "missing", "u1")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, doc)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	rows := sqlmock.NewRows(docCols).
		AddRow("d1", "u1", "a.pdf", "s_a.pdf", "documents/u1/s_a.pdf", 10, "pdf", 3, "artifacts/u1/s_a.pdf", time.Now())

	mock.ExpectQuery(`WHERE owner_id = \$1 AND id IN \(\$2, \$3\)`).
		WithArgs("u1", "d1", "d2").
		WillReturnRows(rows)

	docs, err := repo.FindOwned(context.Background(), "u1", []string{"d1", "d2"})

	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 3, docs[0].Pages())
	assert.NoError(t, mock.ExpectationsWereMet())

	empty, err := repo.FindOwned(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDocumentPostgres_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("SELECT COUNT").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE owner_id").
		WithArgs("u1", 10, 0).
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("d1", "u1", "a.pdf", "s_a.pdf", "p1", 10, "pdf", 1, nil, time.Now()).
			AddRow("d2", "u1", "b.pdf", "s_b.pdf", "p2", 20, "pdf", 2, nil, time.Now()))

	res, err := repo.ListByOwner(context.Background(), "u1", repository.PageQuery{Limit: 10, Offset: 0})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SumSizeByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(size\), 0\) FROM documents`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(4096)))

	total, err := repo.SumSizeByOwner(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, int64(4096), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListCreatedBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	cutoff := time.Now().Add(-30 * 24 * time.Hour)

	mock.ExpectQuery("WHERE created_at < (.+) ORDER BY created_at ASC").
		WithArgs(cutoff, 100).
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("old", "u1", "a.pdf", "s_a.pdf", "p1", 10, "pdf", 1, nil, cutoff.Add(-time.Hour)))

	docs, err := repo.ListCreatedBefore(context.Background(), cutoff, repository.Cursor{}, 100)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "old", docs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListCreatedBefore_AfterCursor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	after := repository.Cursor{CreatedAt: cutoff.Add(-48 * time.Hour), ID: "d2"}

	mock.ExpectQuery(`WHERE created_at < \$1 AND \(created_at, id\) > \(\$2, \$3\) ORDER BY created_at ASC, id ASC LIMIT \$4`).
		WithArgs(cutoff, after.CreatedAt, "d2", 2).
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("d3", "u1", "c.pdf", "s_c.pdf", "p3", 10, "pdf", 1, nil, cutoff.Add(-time.Hour)))

	docs, err := repo.ListCreatedBefore(context.Background(), cutoff, after, 2)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d3", docs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Rename(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("UPDATE documents SET original_name").
		WithArgs("d1", "u1", "report.pdf").
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("d1", "u1", "report.pdf", "s_a.pdf", "p1", 10, "pdf", 1, nil, time.Now()))
	mock.ExpectQuery("UPDATE documents SET original_name").
		WithArgs("d2", "u1", "x.pdf").
		WillReturnError(sql.ErrNoRows)

	doc, err := repo.Rename(context.Background(), "d1", "u1", "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.OriginalName)

	_, err = repo.Rename(context.Background(), "d2", "u1", "x.pdf")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ClearArtifact(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectExec("UPDATE documents SET artifact_path = NULL").
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.ClearArtifact(context.Background(), "d1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs("test-id").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, "test-id"))
	})

	t.Run("already gone", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs("gone").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, "gone"), repository.ErrNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents").
			WithArgs("x").
			WillReturnError(errors.New("boom"))

		assert.EqualError(t, repo.Delete(ctx, "x"), "boom")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
