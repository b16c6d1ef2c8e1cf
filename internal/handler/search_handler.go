package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arosell/go-docsearch/internal/service"
)

// SearchHandler handles similarity search requests.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Register sets up search routes.
func (h *SearchHandler) Register(api fiber.Router) {
	api.Post("/search", h.Search)
}

// Search embeds the query and returns ranked passages.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var body struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	results, err := h.search.Search(c.Context(), body.Query, body.TopK)
	if err != nil {
		return c.Status(statusFromErr(err)).JSON(fiber.Map{"error": err.Error()})
	}

	out := make([]fiber.Map, len(results))
	for i, r := range results {
		out[i] = fiber.Map{
			"passage_id":  r.ID,
			"document_id": r.DocumentID,
			"filename":    r.Filename,
			"position":    r.Position,
			"text":        r.Text,
			"score":       r.Score,
		}
	}

	return c.JSON(fiber.Map{"results": out, "count": len(out)})
}
