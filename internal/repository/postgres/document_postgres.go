package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"sikap/internal/model"
	"sikap/internal/repository"
)

const uniqueViolation = "23505"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, application_id, document_type, original_filename, stored_filename,
		relative_path, file_size, mime_type, file_hash, page_count, scan_result, uploaded_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d         model.Document
		pageCount sql.NullInt32
		scan      []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.ApplicationID,
		&d.DocumentType,
		&d.OriginalFilename,
		&d.StoredFilename,
		&d.RelativePath,
		&d.FileSize,
		&d.MimeType,
		&d.FileHash,
		&pageCount,
		&scan,
		&d.UploadedBy,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if pageCount.Valid {
		n := int(pageCount.Int32)
		d.PageCount = &n
	}
	d.ScanResult = scan
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, application_id, document_type, original_filename, stored_filename,
			relative_path, file_size, mime_type, file_hash, page_count, scan_result, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13)
		RETURNING ` + documentColumns

	var pageCount sql.NullInt32
	if doc.PageCount != nil {
		pageCount = sql.NullInt32{Int32: int32(*doc.PageCount), Valid: true}
	}
	scan := string(doc.ScanResult)
	if scan == "" {
		scan = "{}"
	}

	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.ApplicationID,
		doc.DocumentType,
		doc.OriginalFilename,
		doc.StoredFilename,
		doc.RelativePath,
		doc.FileSize,
		doc.MimeType,
		doc.FileHash,
		pageCount,
		scan,
		doc.UploadedBy,
		doc.CreatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindDuplicate looks up an existing document for the same slot and content.
func (r *DocumentPostgres) FindDuplicate(ctx context.Context, applicationID, documentType, fileHash string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents
		WHERE application_id = $1 AND document_type = $2 AND file_hash = $3
		LIMIT 1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, applicationID, documentType, fileHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// ListByApplication returns the documents of one application, newest first.
func (r *DocumentPostgres) ListByApplication(ctx context.Context, applicationID string) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents
		WHERE application_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
