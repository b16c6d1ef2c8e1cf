package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v3"

	"github.com/arosell/go-docsearch/internal/domain"
	"github.com/arosell/go-docsearch/internal/port"
	"github.com/arosell/go-docsearch/internal/service"
)

// DocumentHandler handles document upload, listing, and deletion.
type DocumentHandler struct {
	ingest *service.IngestService
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(ingest *service.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

// Register sets up document routes.
func (h *DocumentHandler) Register(api fiber.Router) {
	docs := api.Group("/documents")
	docs.Get("/", h.List)
	docs.Post("/", h.Upload)
	docs.Delete("/", h.DeleteBatch)
	docs.Delete("/:id", h.Delete)
}

// Upload ingests one or more files from a multipart form (field "files").
func (h *DocumentHandler) Upload(c fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart form"})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no files uploaded"})
	}

	ingested := make([]fiber.Map, 0, len(files))
	failures := make([]fiber.Map, 0)
	var firstErr error

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			failures = append(failures, fiber.Map{"filename": fh.Filename, "error": "open upload"})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			failures = append(failures, fiber.Map{"filename": fh.Filename, "error": "read upload"})
			continue
		}

		doc, err := h.ingest.Ingest(c.Context(), fh.Filename, data)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failures = append(failures, fiber.Map{"filename": fh.Filename, "error": err.Error()})
			continue
		}
		ingested = append(ingested, fiber.Map{
			"id":            doc.ID,
			"filename":      doc.Filename,
			"uploaded_at":   doc.UploadedAt,
			"passage_count": doc.PassageCount,
		})
	}

	if len(ingested) == 0 {
		status := fiber.StatusBadRequest
		if firstErr != nil {
			status = statusFromErr(firstErr)
		}
		return c.Status(status).JSON(fiber.Map{"errors": failures})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"documents": ingested,
		"errors":    failures,
	})
}

// List returns every ingested document with its passage count.
func (h *DocumentHandler) List(c fiber.Ctx) error {
	docs, err := h.ingest.List(c.Context())
	if err != nil {
		return c.Status(statusFromErr(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if docs == nil {
		docs = []domain.DocumentSummary{} // never return null for an empty list
	}
	return c.JSON(fiber.Map{"documents": docs, "count": len(docs)})
}

// Delete removes a single document and its passages.
func (h *DocumentHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.ingest.Delete(c.Context(), id); err != nil {
		return c.Status(statusFromErr(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"deleted": id})
}

// DeleteBatch removes a set of documents by id.
func (h *DocumentHandler) DeleteBatch(c fiber.Ctx) error {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(body.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no ids given"})
	}

	deleted := make([]string, 0, len(body.IDs))
	failures := make([]fiber.Map, 0)
	for _, id := range body.IDs {
		if err := h.ingest.Delete(c.Context(), id); err != nil {
			failures = append(failures, fiber.Map{"id": id, "error": err.Error()})
			continue
		}
		deleted = append(deleted, id)
	}

	return c.JSON(fiber.Map{"deleted": deleted, "errors": failures})
}

// statusFromErr maps sentinel errors to HTTP status codes.
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, port.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, port.ErrUnsupportedFormat):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, port.ErrParse):
		return fiber.StatusBadRequest
	case errors.Is(err, port.ErrEmbeddingService):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
