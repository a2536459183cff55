package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/analysis"
	"github.com/word-munch/backend/internal/cognitive"
	"github.com/word-munch/backend/pkg/logger"
)

type ProfileHandler struct {
	service *cognitive.ProfileService
}

func NewProfileHandler(service *cognitive.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type recordRequest struct {
	UserID            string                   `json:"user_id"`
	OriginalText      string                   `json:"original_text"`
	UserUnderstanding string                   `json:"user_understanding"`
	Result            *analysis.AnalysisResult `json:"result"`
	Domain            string                   `json:"domain"`
	URL               string                   `json:"url"`
	Title             string                   `json:"title"`
}

// HandleRecord persists a cognitive record synchronously. The comprehension
// endpoint records automatically; this exists for clients that run analysis
// elsewhere and push results in.
func (h *ProfileHandler) HandleRecord(c *fiber.Ctx) error {
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	userID := extractUserID(c, req.UserID)

	if req.Result == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "result is required",
		})
	}

	record, err := h.service.RecordAnalysis(c.Context(), userID, cognitive.RecordInput{
		OriginalText:      req.OriginalText,
		UserUnderstanding: req.UserUnderstanding,
		Result:            req.Result,
		Domain:            req.Domain,
		URL:               req.URL,
		Title:             req.Title,
	})
	if err != nil {
		logger.Error("Failed to record analysis", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record analysis",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"record_id": record.RecordID,
		"user_id":   record.UserID,
		"timestamp": record.Timestamp,
	})
}

// HandleGetProfile returns the aggregated cognitive profile for a window of
// days (default 30).
func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		userID = extractUserID(c, "")
	}

	days := c.QueryInt("days", 0)
	if days < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "days must be positive",
		})
	}

	profile, err := h.service.GetProfile(c.Context(), userID, days)
	if err != nil {
		logger.Error("Failed to build profile", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build profile",
		})
	}

	return c.JSON(profile)
}
