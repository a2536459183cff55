package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/words"
	"github.com/word-munch/backend/pkg/logger"
)

type WordHandler struct {
	muncher *words.Muncher
}

func NewWordHandler(muncher *words.Muncher) *WordHandler {
	return &WordHandler{muncher: muncher}
}

// HandleSimplify returns up to five progressively simpler synonyms for a
// word, optionally disambiguated by the sentence it appeared in.
func (h *WordHandler) HandleSimplify(c *fiber.Ctx) error {
	var req struct {
		Word     string `json:"word"`
		Context  string `json:"context"`
		Language string `json:"language"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Word == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "word is required",
		})
	}

	result, err := h.muncher.Simplify(c.Context(), req.Word, req.Context, req.Language)
	if err != nil {
		logger.Error("Failed to simplify word", zap.String("word", req.Word), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to simplify word",
		})
	}

	return c.JSON(result)
}
