package handler

import (
	"context"
	"database/sql"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sikap"
	"sikap/internal/apperror"
	"sikap/internal/service"
	"sikap/internal/upload"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers only decode the transport; every rule lives in the services.
func RegisterRoutes(app *fiber.App, db *sql.DB, uploadSvc service.UploadService, docSvc service.DocumentService, maxFileSize int64) {
	app.Get("/openapi.yaml", OpenAPISpec(sikap.OpenAPI))
	app.Get("/swagger/*", SwaggerUI(sikap.OpenAPI))
	app.Get("/docs", func(c *fiber.Ctx) error {
		return c.Redirect("/swagger/index.html", fiber.StatusMovedPermanently)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/upload", UploadFile(uploadSvc, maxFileSize))
	// Registered before /documents/:id so "duplicate" is not taken for an id.
	api.Get("/documents/duplicate", CheckDuplicate(docSvc))
	api.Get("/documents/:id", GetDocument(docSvc))
	api.Get("/documents/:id/content", DownloadDocument(docSvc))
	api.Get("/applications/:id/documents", ListApplicationDocuments(docSvc))
}

// HealthCheck checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200 while the process is serving.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadFile accepts multipart/form-data with the fields file, type,
// applicationId and documentType.
func UploadFile(svc service.UploadService, maxFileSize int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeAppError(c, apperror.Clone(apperror.ErrValidation, "No file provided"))
		}
		if fh.Size > maxFileSize {
			return writeAppError(c, apperror.Clone(apperror.ErrValidation, upload.SizeLimitMessage(maxFileSize)))
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		// One byte past the limit is enough for the size gate to reject.
		data, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		res, err := svc.Upload(c.UserContext(), service.UploadRequest{
			Data:             data,
			Size:             fh.Size,
			OriginalFilename: fh.Filename,
			DeclaredMimeType: fh.Header.Get(fiber.HeaderContentType),
			Category:         upload.Category(strings.TrimSpace(c.FormValue("type"))),
			ApplicationID:    strings.TrimSpace(c.FormValue("applicationId")),
			DocumentType:     strings.TrimSpace(c.FormValue("documentType")),
			ClientIP:         c.IP(),
			UserAgent:        c.Get(fiber.HeaderUserAgent),
		})
		if err != nil {
			return writeAppError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(res)
	}
}

// GetDocument returns stored metadata by id.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeAppError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "document": doc})
	}
}

// DownloadDocument streams the stored bytes of a document.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, rc, err := svc.Open(c.UserContext(), id)
		if err != nil {
			return writeAppError(c, err)
		}

		c.Set(fiber.HeaderContentType, doc.MimeType)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{
			"filename": doc.OriginalFilename,
		}))
		c.Set("X-Content-Type-Options", "nosniff")
		return c.SendStream(rc, int(doc.FileSize))
	}
}

// ListApplicationDocuments returns every stored document of an application.
func ListApplicationDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListByApplication(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeAppError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "data": items, "total": len(items)})
	}
}

// CheckDuplicate answers whether a content hash already fills a document slot.
func CheckDuplicate(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.CheckDuplicate(
			c.UserContext(),
			strings.TrimSpace(c.Query("applicationId")),
			strings.TrimSpace(c.Query("documentType")),
			strings.ToLower(strings.TrimSpace(c.Query("hash"))),
		)
		if err != nil {
			return writeAppError(c, err)
		}
		return c.JSON(res)
	}
}
