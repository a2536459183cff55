package handlers

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/analysis"
	"github.com/word-munch/backend/internal/cognitive"
	"github.com/word-munch/backend/pkg/logger"
)

const wsAnalyzeTimeout = 60 * time.Second

type WebSocketHandler struct {
	engine   *analysis.Engine
	recorder *cognitive.Recorder
}

func NewWebSocketHandler(engine *analysis.Engine, recorder *cognitive.Recorder) *WebSocketHandler {
	return &WebSocketHandler{
		engine:   engine,
		recorder: recorder,
	}
}

type wsAnalyzeMessage struct {
	Type              string `json:"type"`
	OriginalText      string `json:"original_text"`
	UserUnderstanding string `json:"user_understanding"`
	Context           string `json:"context"`
	AutoContext       bool   `json:"auto_context"`
	UserID            string `json:"user_id"`
}

// HandleConnection runs comprehension analyses over a long-lived socket,
// sending progress events before the final result.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg wsAnalyzeMessage
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "analyze" {
			continue
		}

		if msg.OriginalText == "" || msg.UserUnderstanding == "" {
			h.sendError(c, "original_text and user_understanding are required")
			continue
		}

		if err := h.streamAnalysis(c, msg); err != nil {
			logger.Error("Failed to stream analysis", zap.Error(err))
			h.sendError(c, "Failed to analyze comprehension")
		}
	}
}

func (h *WebSocketHandler) streamAnalysis(c *websocket.Conn, msg wsAnalyzeMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), wsAnalyzeTimeout)
	defer cancel()

	h.sendEvent(c, "status", map[string]interface{}{"stage": "segmenting"})

	result, err := h.engine.Analyze(ctx, analysis.AnalyzeRequest{
		OriginalText:      msg.OriginalText,
		UserUnderstanding: msg.UserUnderstanding,
		Context:           msg.Context,
		AutoContext:       msg.AutoContext,
	})
	if err != nil {
		return err
	}

	// Stream per-segment scores before the aggregate so clients can render
	// progressively.
	for _, segment := range result.Segments {
		if err := h.sendEvent(c, "segment", segment); err != nil {
			return err
		}
	}

	if h.recorder != nil && msg.UserID != "" {
		h.recorder.Enqueue(msg.UserID, cognitive.RecordInput{
			OriginalText:      msg.OriginalText,
			UserUnderstanding: msg.UserUnderstanding,
			Result:            result,
		})
	}

	return h.sendEvent(c, "complete", map[string]interface{}{
		"overall_similarity":      result.OverallSimilarity,
		"suggestions":             result.Suggestions,
		"needs_detailed_feedback": result.NeedsDetailedFeedback,
		"detailed_feedback":       result.DetailedFeedback,
		"context_used":            result.ContextUsed,
		"analysis_stats":          result.Stats,
	})
}

func (h *WebSocketHandler) sendEvent(c *websocket.Conn, eventType string, payload interface{}) error {
	return c.WriteJSON(map[string]interface{}{
		"type": eventType,
		"data": payload,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
