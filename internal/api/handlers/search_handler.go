package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/reading"
	"github.com/word-munch/backend/internal/search"
	"github.com/word-munch/backend/pkg/logger"
)

type SearchHandler struct {
	engine *search.Engine
}

func NewSearchHandler(engine *search.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// HandleSearch ranks caller-supplied chunks against a query. Chunks live
// only for the duration of the request.
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req struct {
		Query     string   `json:"query"`
		Chunks    []string `json:"chunks"`
		TopK      int      `json:"top_k"`
		Threshold float64  `json:"threshold"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query is required",
		})
	}
	if len(req.Chunks) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "chunks are required",
		})
	}

	matches, err := h.engine.Search(c.Context(), req.Query, req.Chunks, req.TopK, req.Threshold)
	if err != nil {
		logger.Error("Failed to run semantic search", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to run semantic search",
		})
	}

	return c.JSON(fiber.Map{
		"query":   req.Query,
		"matches": matches,
		"total":   len(matches),
	})
}

// HandleExtract strips page chrome from raw HTML and returns readable text
// with token and sentence statistics.
func (h *SearchHandler) HandleExtract(c *fiber.Ctx) error {
	var req struct {
		HTML string `json:"html"`
		Text string `json:"text"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var extraction *reading.Extraction
	var err error
	switch {
	case req.HTML != "":
		extraction, err = reading.ExtractFromHTML(req.HTML)
	case req.Text != "":
		extraction, err = reading.AnnotateText(req.Text)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "html or text is required",
		})
	}

	if err != nil {
		logger.Error("Failed to extract content", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Failed to extract content",
		})
	}

	return c.JSON(extraction)
}
