package repository

import (
	"context"

	"sikap/internal/model"
)

// DocumentRepository defines data access for application documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	// A unique violation on (application_id, document_type, file_hash) yields ErrDuplicate.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindDuplicate returns the document occupying the same slot with the same
	// content hash, or nil when there is none.
	FindDuplicate(ctx context.Context, applicationID, documentType, fileHash string) (*model.Document, error)

	// ListByApplication returns all documents of an application, newest first.
	ListByApplication(ctx context.Context, applicationID string) ([]model.Document, error)
}
