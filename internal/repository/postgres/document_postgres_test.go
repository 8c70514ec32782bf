package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"sikap/internal/model"
	"sikap/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var documentRowColumns = []string{
	"id", "application_id", "document_type", "original_filename", "stored_filename",
	"relative_path", "file_size", "mime_type", "file_hash", "page_count", "scan_result", "uploaded_by", "created_at",
}

func testDocument() *model.Document {
	pages := 3
	return &model.Document{
		ID:               "doc-1",
		ApplicationID:    "app-1",
		DocumentType:     "draft_mou",
		OriginalFilename: "Draft MOU.pdf",
		StoredFilename:   "1700000000000_0123456789abcdef_draft_mou.pdf",
		RelativePath:     "uploads/document/1700000000000_0123456789abcdef_draft_mou.pdf",
		FileSize:         1024,
		MimeType:         "application/pdf",
		FileHash:         "abc123",
		PageCount:        &pages,
		ScanResult:       []byte(`{"isClean":true}`),
		UploadedBy:       "system-user",
		CreatedAt:        time.Now().UTC(),
	}
}

func documentRow(d *model.Document, pageCount any) *sqlmock.Rows {
	return sqlmock.NewRows(documentRowColumns).AddRow(
		d.ID, d.ApplicationID, d.DocumentType, d.OriginalFilename, d.StoredFilename,
		d.RelativePath, d.FileSize, d.MimeType, d.FileHash, pageCount, string(d.ScanResult), d.UploadedBy, d.CreatedAt,
	)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	doc := testDocument()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.ApplicationID, doc.DocumentType, doc.OriginalFilename, doc.StoredFilename,
				doc.RelativePath, doc.FileSize, doc.MimeType, doc.FileHash, sqlmock.AnyArg(), `{"isClean":true}`,
				doc.UploadedBy, doc.CreatedAt).
			WillReturnRows(documentRow(doc, int64(3)))

		result, err := repo.Create(ctx, doc)

		require.NoError(t, err)
		assert.Equal(t, doc.ID, result.ID)
		require.NotNil(t, result.PageCount)
		assert.Equal(t, 3, *result.PageCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrDuplicate", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "documents_slot_hash_key"})

		result, err := repo.Create(ctx, doc)

		assert.ErrorIs(t, err, repository.ErrDuplicate)
		assert.Nil(t, result)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").WillReturnError(errors.New("connection reset"))

		_, err := repo.Create(ctx, doc)

		assert.EqualError(t, err, "connection reset")
		assert.NotErrorIs(t, err, repository.ErrDuplicate)
	})
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		doc := testDocument()
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("doc-1").
			WillReturnRows(documentRow(doc, nil))

		got, err := repo.FindByID(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, "doc-1", got.ID)
		assert.Nil(t, got.PageCount)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestDocumentPostgres_FindDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("existing slot and hash", func(t *testing.T) {
		doc := testDocument()
		mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE application_id = \\$1 AND document_type = \\$2 AND file_hash = \\$3").
			WithArgs("app-1", "draft_mou", "abc123").
			WillReturnRows(documentRow(doc, int64(3)))

		got, err := repo.FindDuplicate(ctx, "app-1", "draft_mou", "abc123")

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "doc-1", got.ID)
	})

	t.Run("none", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("app-1", "proposal", "abc123").
			WillReturnRows(sqlmock.NewRows(documentRowColumns))

		got, err := repo.FindDuplicate(ctx, "app-1", "proposal", "abc123")

		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").WillReturnError(errors.New("timeout"))

		got, err := repo.FindDuplicate(ctx, "app-1", "proposal", "abc123")

		assert.Error(t, err)
		assert.Nil(t, got)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListByApplication(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	first := testDocument()
	second := testDocument()
	second.ID = "doc-2"
	second.DocumentType = "proposal"

	rows := documentRow(first, int64(3)).AddRow(
		second.ID, second.ApplicationID, second.DocumentType, second.OriginalFilename, second.StoredFilename,
		second.RelativePath, second.FileSize, second.MimeType, second.FileHash, nil, "{}", second.UploadedBy, second.CreatedAt,
	)
	mock.ExpectQuery("SELECT (.+) FROM documents\\s+WHERE application_id = \\$1\\s+ORDER BY").
		WithArgs("app-1").
		WillReturnRows(rows)

	items, err := repo.ListByApplication(ctx, "app-1")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "doc-2", items[1].ID)
	assert.Nil(t, items[1].PageCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
