package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"sikap/internal/apperror"
	"sikap/internal/logger"
	"sikap/internal/model"
	"sikap/internal/repository"
	"sikap/internal/storage"
	"sikap/internal/upload"
)

const (
	msgApplicationNotFound = "Application not found"
	msgInvalidDocumentType = "Invalid document type for this application"
	msgMalicious           = "File contains malicious content and cannot be uploaded"
	msgDuplicate           = "This file has already been uploaded for this document type"
)

var (
	nowFunc  = time.Now
	validate = validator.New()
	tracer   = otel.Tracer("sikap/internal/service")
)

// UploadRequest is one multipart submission after transport decoding.
type UploadRequest struct {
	Data             []byte          `validate:"required,min=1"`
	Size             int64           `validate:"gte=0"`
	OriginalFilename string
	DeclaredMimeType string
	Category         upload.Category `validate:"required,oneof=application legal-document sop-document"`
	ApplicationID    string          `validate:"required_if=Category application"`
	DocumentType     string          `validate:"required_if=Category application"`
	ClientIP         string
	UserAgent        string
}

// UploadResult is returned on success. Application uploads carry Document;
// the other categories carry the relative path and basic file facts.
type UploadResult struct {
	Success          bool            `json:"success"`
	Document         *model.Document `json:"document,omitempty"`
	RelativePath     string          `json:"relativePath,omitempty"`
	OriginalFilename string          `json:"originalFilename,omitempty"`
	FileSize         int64           `json:"fileSize,omitempty"`
	MimeType         string          `json:"mimeType,omitempty"`
}

// UploadService runs the validate, screen, store and record pipeline.
type UploadService interface {
	// Upload returns an *apperror.Error on every failure. Nothing is written
	// before the content passed validation, screening and the duplicate check.
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// UploadDeps are the collaborators of the upload pipeline.
type UploadDeps struct {
	Applications repository.ApplicationRepository
	Documents    repository.DocumentRepository
	Users        repository.UserRepository
	Activity     repository.ActivityRepository
	Storage      storage.Storage
	Scanner      upload.Scanner
	Validator    *upload.Validator
	Metrics      *UploadMetrics
	Logger       *zap.Logger
}

// UploadOptions tune the pipeline.
type UploadOptions struct {
	// SystemUserEmail identifies the account public submissions are attributed to.
	SystemUserEmail string
	// ScanTimeout bounds a single scan. Zero means no extra bound beyond ctx.
	ScanTimeout time.Duration
	// Location decides the year/month partition of legal and SOP paths.
	Location *time.Location
}

type uploadService struct {
	apps      repository.ApplicationRepository
	docs      repository.DocumentRepository
	users     repository.UserRepository
	activity  repository.ActivityRepository
	store     storage.Storage
	scanner   upload.Scanner
	validator *upload.Validator
	metrics   *UploadMetrics
	logger    *zap.Logger
	opts      UploadOptions
}

// NewUploadService constructs an UploadService.
func NewUploadService(deps UploadDeps, opts UploadOptions) UploadService {
	if deps.Validator == nil {
		deps.Validator = upload.NewValidator(upload.MaxFileSize)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &uploadService{
		apps:      deps.Applications,
		docs:      deps.Documents,
		users:     deps.Users,
		activity:  deps.Activity,
		store:     deps.Storage,
		scanner:   deps.Scanner,
		validator: deps.Validator,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		opts:      opts,
	}
}

func (s *uploadService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	res, err := s.upload(ctx, req)
	s.metrics.observeUpload(string(req.Category), outcomeOf(err))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *uploadService) upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	log := logger.For(ctx, s.logger).With(
		zap.String("category", string(req.Category)),
		zap.String("application_id", req.ApplicationID),
		zap.String("document_type", req.DocumentType),
		zap.String("original_filename", req.OriginalFilename),
	)

	if err := validate.Struct(req); err != nil {
		appErr := presenceError(err)
		log.Info("upload rejected", zap.String("reason", appErr.Message))
		return nil, appErr
	}
	isApplication := req.Category == upload.CategoryApplication

	if isApplication {
		app, err := s.apps.FindWithRequiredDocuments(ctx, req.ApplicationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				log.Info("upload rejected", zap.String("reason", msgApplicationNotFound))
				return nil, apperror.Clone(apperror.ErrNotFound, msgApplicationNotFound)
			}
			log.Error("application lookup failed", zap.Error(err))
			return nil, apperror.Wrap(err, apperror.ErrInternal, "")
		}
		if !app.HasDocumentKey(req.DocumentType) {
			log.Info("upload rejected", zap.String("reason", msgInvalidDocumentType))
			return nil, apperror.Clone(apperror.ErrValidation, msgInvalidDocumentType)
		}
	}

	limit := s.validator.MaxFileSize()
	if req.Size > limit || int64(len(req.Data)) > limit {
		log.Info("upload rejected", zap.String("reason", "size"), zap.Int64("size", req.Size))
		return nil, apperror.Clone(apperror.ErrValidation, upload.SizeLimitMessage(limit))
	}

	vr := s.validator.Validate(req.Data, req.OriginalFilename, req.DeclaredMimeType)
	if !vr.IsValid {
		log.Info("upload rejected", zap.String("reason", vr.Error), zap.String("declared_mime_type", req.DeclaredMimeType))
		return nil, apperror.Clone(apperror.ErrValidation, vr.Error)
	}

	verdict, err := s.scan(ctx, req.Data)
	if err != nil {
		log.Warn("content scan failed", zap.Error(err))
		return nil, apperror.Wrap(err, apperror.ErrScanUnavailable, "")
	}
	if !verdict.IsClean {
		log.Warn("upload rejected: malicious content",
			zap.String("threat", verdict.Threat),
			zap.String("engine", verdict.Engine),
			zap.String("client_ip", req.ClientIP),
		)
		return nil, apperror.Clone(apperror.ErrValidation, msgMalicious)
	}

	fileHash := upload.Hash(req.Data)

	if isApplication {
		existing, err := s.docs.FindDuplicate(ctx, req.ApplicationID, req.DocumentType, fileHash)
		if err != nil {
			log.Error("duplicate check failed", zap.Error(err))
			return nil, apperror.Wrap(err, apperror.ErrInternal, "")
		}
		if existing != nil {
			log.Info("upload rejected", zap.String("reason", "duplicate"), zap.String("existing_document_id", existing.ID))
			return nil, apperror.Clone(apperror.ErrConflict, msgDuplicate)
		}
	}

	now := nowFunc()
	relPath, err := upload.AllocatePath(req.Category, vr.SanitizedFilename, now.In(s.opts.Location))
	if err != nil {
		log.Error("path allocation failed", zap.Error(err))
		return nil, apperror.Wrap(err, apperror.ErrInternal, "")
	}

	var uploader *model.User
	if isApplication {
		uploader, err = s.users.FindByEmail(ctx, s.opts.SystemUserEmail)
		if err != nil {
			log.Error("system user unavailable", zap.String("email", s.opts.SystemUserEmail), zap.Error(err))
			return nil, apperror.Wrap(err, apperror.ErrInternal, "")
		}
	}

	size := int64(len(req.Data))
	if err := s.write(ctx, relPath, req, vr.DetectedMimeType, size); err != nil {
		log.Error("file write failed", zap.String("relative_path", relPath), zap.Error(err))
		return nil, apperror.Wrap(err, apperror.ErrInternal, "")
	}
	log = log.With(zap.String("relative_path", relPath))

	if !isApplication {
		log.Info("file uploaded", zap.Int64("size", size), zap.String("mime_type", vr.DetectedMimeType))
		return &UploadResult{
			Success:          true,
			RelativePath:     relPath,
			OriginalFilename: req.OriginalFilename,
			FileSize:         size,
			MimeType:         vr.DetectedMimeType,
		}, nil
	}

	summary, _ := json.Marshal(verdict)
	doc := &model.Document{
		ID:               uuid.NewString(),
		ApplicationID:    req.ApplicationID,
		DocumentType:     req.DocumentType,
		OriginalFilename: req.OriginalFilename,
		StoredFilename:   vr.SanitizedFilename,
		RelativePath:     relPath,
		FileSize:         size,
		MimeType:         vr.DetectedMimeType,
		FileHash:         fileHash,
		PageCount:        pageCount(log, req.Data, vr.DetectedMimeType),
		ScanResult:       summary,
		UploadedBy:       uploader.ID,
		CreatedAt:        now.UTC(),
	}

	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the race against a concurrent upload of the same content.
			if delErr := s.store.Delete(context.WithoutCancel(ctx), relPath); delErr != nil {
				log.Warn("failed to remove redundant file", zap.Error(delErr))
			}
			log.Info("upload rejected", zap.String("reason", "duplicate"))
			return nil, apperror.Clone(apperror.ErrConflict, msgDuplicate)
		}
		log.Error("document metadata not saved; file left in place", zap.Error(err))
		return nil, apperror.Wrap(err, apperror.ErrInternal, "")
	}

	s.emitAudit(ctx, uploader, stored, req)

	log.Info("document uploaded",
		zap.String("document_id", stored.ID),
		zap.Int64("size", stored.FileSize),
		zap.String("mime_type", stored.MimeType),
	)
	return &UploadResult{Success: true, Document: stored}, nil
}

func (s *uploadService) scan(ctx context.Context, data []byte) (upload.ScanResult, error) {
	if s.scanner == nil {
		return upload.ScanResult{}, errors.New("no scanner configured")
	}
	ctx, span := tracer.Start(ctx, "upload.scan", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	if s.opts.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ScanTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.scanner.Scan(ctx, data)
	s.metrics.observeScan(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return upload.ScanResult{}, err
	}
	span.SetAttributes(
		attribute.Bool("scan.clean", res.IsClean),
		attribute.String("scan.engine", res.Engine),
		attribute.Bool("scan.cached", res.Cached),
	)
	return res, nil
}

func (s *uploadService) write(ctx context.Context, key string, req UploadRequest, mimeType string, size int64) error {
	ctx, span := tracer.Start(ctx, "upload.write", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("storage.key", key), attribute.Int64("storage.size", size))

	_, err := s.store.Put(ctx, key, bytes.NewReader(req.Data), storage.PutObjectOptions{
		Size:        size,
		ContentType: mimeType,
		Metadata: map[string]string{
			"original-filename": req.OriginalFilename,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func pageCount(log *zap.Logger, data []byte, mimeType string) (pages *int) {
	if mimeType != upload.MimePDF {
		return nil
	}
	// pdfcpu can panic on malformed input; the count is optional.
	defer func() {
		if r := recover(); r != nil {
			log.Warn("PDF page count panicked", zap.Any("panic", r))
			pages = nil
		}
	}()
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		log.Warn("failed to extract PDF page count", zap.Error(err))
		return nil
	}
	return &count
}

type auditDetails struct {
	ApplicationID    string `json:"applicationId"`
	DocumentType     string `json:"documentType"`
	OriginalFilename string `json:"originalFilename"`
	StoredFilename   string `json:"storedFilename"`
	FileSize         int64  `json:"fileSize"`
	FileHash         string `json:"fileHash"`
}

func (s *uploadService) emitAudit(ctx context.Context, actor *model.User, doc *model.Document, req UploadRequest) {
	if s.activity == nil || actor == nil || doc == nil {
		return
	}
	details, _ := json.Marshal(auditDetails{
		ApplicationID:    doc.ApplicationID,
		DocumentType:     doc.DocumentType,
		OriginalFilename: doc.OriginalFilename,
		StoredFilename:   doc.StoredFilename,
		FileSize:         doc.FileSize,
		FileHash:         doc.FileHash,
	})
	entry := &model.ActivityLog{
		UserID:     actor.ID,
		Action:     model.ActivityActionUpload,
		TargetType: model.ActivityTargetDocument,
		TargetID:   doc.ID,
		Details:    details,
		IPAddress:  req.ClientIP,
		UserAgent:  req.UserAgent,
	}
	if err := s.activity.Record(ctx, entry); err != nil {
		logger.For(ctx, s.logger).Warn("failed to record upload activity", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func presenceError(err error) *apperror.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Wrap(err, apperror.ErrValidation, "")
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Data":
		return apperror.Clone(apperror.ErrValidation, "No file provided")
	case "Category":
		if fe.Tag() == "oneof" {
			return apperror.Clone(apperror.ErrValidation, "Invalid upload type. Allowed types: application, legal-document, sop-document")
		}
		return apperror.Clone(apperror.ErrValidation, "Upload type is required")
	case "ApplicationID", "DocumentType":
		return apperror.Clone(apperror.ErrValidation, "Application ID and document type are required for application uploads")
	default:
		return apperror.Clone(apperror.ErrValidation, fmt.Sprintf("Invalid field %s", fe.Field()))
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return OutcomeRejected
	case errors.Is(err, apperror.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, apperror.ErrConflict):
		return OutcomeDuplicate
	case errors.Is(err, apperror.ErrScanUnavailable):
		return OutcomeScanUnavailable
	default:
		return OutcomeError
	}
}
