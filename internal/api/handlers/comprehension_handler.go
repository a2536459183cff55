package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/analysis"
	"github.com/word-munch/backend/internal/cognitive"
	"github.com/word-munch/backend/internal/storage/models"
	"github.com/word-munch/backend/internal/storage/sqlite"
	"github.com/word-munch/backend/pkg/logger"
	"github.com/word-munch/backend/pkg/textutil"
)

type ComprehensionHandler struct {
	engine   *analysis.Engine
	recorder *cognitive.Recorder
	db       *sqlite.Client
}

func NewComprehensionHandler(engine *analysis.Engine, recorder *cognitive.Recorder, db *sqlite.Client) *ComprehensionHandler {
	return &ComprehensionHandler{
		engine:   engine,
		recorder: recorder,
		db:       db,
	}
}

type comprehensionRequest struct {
	OriginalText      string `json:"original_text"`
	UserUnderstanding string `json:"user_understanding"`
	Context           string `json:"context"`
	AutoContext       bool   `json:"auto_context"`
	UserID            string `json:"user_id"`
	URL               string `json:"url"`
	Title             string `json:"title"`
	Domain            string `json:"domain"`
}

// HandleAnalyze runs the comprehension pipeline synchronously and queues the
// cognitive record write off the request path.
func (h *ComprehensionHandler) HandleAnalyze(c *fiber.Ctx) error {
	start := time.Now()

	var req comprehensionRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.OriginalText == "" || req.UserUnderstanding == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "original_text and user_understanding are required",
		})
	}

	userID := extractUserID(c, req.UserID)

	result, err := h.engine.Analyze(c.Context(), analysis.AnalyzeRequest{
		OriginalText:      req.OriginalText,
		UserUnderstanding: req.UserUnderstanding,
		Context:           req.Context,
		AutoContext:       req.AutoContext,
	})
	if err != nil {
		logger.Error("Failed to analyze comprehension", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to analyze comprehension",
		})
	}

	latencyMS := int(time.Since(start).Milliseconds())

	if h.db != nil {
		err := h.db.InsertAnalysisRecord(c.Context(), &models.AnalysisRecord{
			ID:                uuid.New().String(),
			UserID:            userID,
			OverallSimilarity: result.OverallSimilarity,
			SegmentCount:      len(result.Segments),
			Escalated:         result.NeedsDetailedFeedback,
			ContextUsed:       result.ContextUsed,
			LatencyMS:         latencyMS,
			CreatedAt:         time.Now(),
		})
		if err != nil {
			logger.Warn("Failed to record analysis history", zap.Error(err))
		}
	}

	if h.recorder != nil {
		h.recorder.Enqueue(userID, cognitive.RecordInput{
			OriginalText:      req.OriginalText,
			UserUnderstanding: req.UserUnderstanding,
			Result:            result,
			Domain:            req.Domain,
			URL:               req.URL,
			Title:             req.Title,
		})
	}

	return c.JSON(fiber.Map{
		"overall_similarity":      result.OverallSimilarity,
		"segments":                result.Segments,
		"suggestions":             result.Suggestions,
		"needs_detailed_feedback": result.NeedsDetailedFeedback,
		"detailed_feedback":       result.DetailedFeedback,
		"context_used":            result.ContextUsed,
		"extracted_context":       result.ExtractedContext,
		"analysis_stats":          result.Stats,
		"performance": fiber.Map{
			"analysis_time_ms":   latencyMS,
			"segments_processed": len(result.Segments),
		},
	})
}

// GetHistory returns recent analysis summaries for a user.
func (h *ComprehensionHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		userID = extractUserID(c, "")
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, err := h.db.GetRecentAnalyses(c.Context(), userID, limit)
	if err != nil {
		logger.Error("Failed to load analysis history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analysis history",
		})
	}

	history := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		history = append(history, fiber.Map{
			"id":                 r.ID,
			"overall_similarity": r.OverallSimilarity,
			"segment_count":      r.SegmentCount,
			"escalated":          r.Escalated,
			"context_used":       r.ContextUsed,
			"latency_ms":         r.LatencyMS,
			"created_at":         r.CreatedAt.Unix(),
		})
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"history": history,
	})
}

// extractUserID prefers the explicit id, then a hash of the Authorization
// header, then a hash of the client IP. Anonymous users stay stable across
// requests from the same client.
func extractUserID(c *fiber.Ctx, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if auth := c.Get("Authorization"); auth != "" {
		return "user_" + textutil.HashString(auth)[:8]
	}
	return "anon_" + textutil.HashString(c.IP())[:8]
}
