package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"regexp"

	"go.uber.org/zap"

	"sikap/internal/apperror"
	"sikap/internal/logger"
	"sikap/internal/model"
	"sikap/internal/repository"
	"sikap/internal/storage"
)

var (
	ErrIDRequired       = apperror.Clone(apperror.ErrValidation, "id is required")
	ErrDocumentNotFound = apperror.Clone(apperror.ErrNotFound, "Document not found")
	ErrContentNotFound  = apperror.Clone(apperror.ErrNotFound, "Document content not found")
)

// msgReadFailed replaces ErrInternal's upload-specific message on the read endpoints.
const msgReadFailed = "Request failed due to server error"

var sha256Hex = regexp.MustCompile(`^[0-9a-f]{64}$`)

// DuplicateResult answers whether a content hash already fills a document slot.
type DuplicateResult struct {
	Duplicate bool            `json:"duplicate"`
	Document  *model.Document `json:"document,omitempty"`
}

// DocumentService defines the read-side use cases for stored documents.
type DocumentService interface {
	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// ListByApplication returns every stored document of an application, newest first.
	ListByApplication(ctx context.Context, applicationID string) ([]model.Document, error)

	// CheckDuplicate reports whether fileHash was already uploaded for the slot.
	CheckDuplicate(ctx context.Context, applicationID, documentType, fileHash string) (*DuplicateResult, error)

	// Open returns the stored bytes of a document. The caller closes the reader.
	Open(ctx context.Context, id string) (*model.Document, io.ReadCloser, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store  storage.Storage
	repo   repository.DocumentRepository
	logger *zap.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, logger *zap.Logger) DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &documentService{store: store, repo: repo, logger: logger}
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		logger.For(ctx, s.logger).Error("find document failed", zap.String("document_id", id), zap.Error(err))
		return nil, apperror.Wrap(err, apperror.ErrInternal, msgReadFailed)
	}
	return doc, nil
}

func (s *documentService) ListByApplication(ctx context.Context, applicationID string) ([]model.Document, error) {
	if applicationID == "" {
		return nil, apperror.Clone(apperror.ErrValidation, "applicationId is required")
	}
	items, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		logger.For(ctx, s.logger).Error("list documents failed", zap.String("application_id", applicationID), zap.Error(err))
		return nil, apperror.Wrap(err, apperror.ErrInternal, msgReadFailed)
	}
	return items, nil
}

func (s *documentService) CheckDuplicate(ctx context.Context, applicationID, documentType, fileHash string) (*DuplicateResult, error) {
	if applicationID == "" || documentType == "" || fileHash == "" {
		return nil, apperror.Clone(apperror.ErrValidation, "applicationId, documentType and hash are required")
	}
	if !sha256Hex.MatchString(fileHash) {
		return nil, apperror.Clone(apperror.ErrValidation, "hash must be a lower-case hex SHA-256 digest")
	}
	doc, err := s.repo.FindDuplicate(ctx, applicationID, documentType, fileHash)
	if err != nil {
		logger.For(ctx, s.logger).Error("duplicate lookup failed", zap.String("application_id", applicationID), zap.Error(err))
		return nil, apperror.Wrap(err, apperror.ErrInternal, msgReadFailed)
	}
	if doc == nil {
		return &DuplicateResult{Duplicate: false}, nil
	}
	return &DuplicateResult{Duplicate: true, Document: doc}, nil
}

// Open looks the document up, then opens its stored object.
func (s *documentService) Open(ctx context.Context, id string) (*model.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.RelativePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		logger.For(ctx, s.logger).Warn("stored object missing for document",
			zap.String("document_id", id),
			zap.String("relative_path", doc.RelativePath),
		)
		return nil, nil, ErrContentNotFound
	}
	if err != nil {
		logger.For(ctx, s.logger).Error("open stored document failed",
			zap.String("document_id", id),
			zap.String("relative_path", doc.RelativePath),
			zap.Error(err),
		)
		return nil, nil, apperror.Wrap(err, apperror.ErrInternal, "Document content unavailable")
	}
	return doc, rc, nil
}
