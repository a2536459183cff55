package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/word-munch/backend/pkg/logger"
)

// ContextDetails is the model's description of a text, used both to enhance
// embeddings and to tag records with a domain.
type ContextDetails struct {
	Topic          string `json:"topic,omitempty"`
	Domain         string `json:"domain,omitempty"`
	Tone           string `json:"tone,omitempty"`
	TextType       string `json:"text_type,omitempty"`
	ContextSummary string `json:"context_summary,omitempty"`
	RawResponse    string `json:"raw_response,omitempty"`
}

type ContextModel interface {
	ExtractContext(ctx context.Context, text string) (string, error)
}

type ContextExtractor struct {
	model ContextModel
}

func NewContextExtractor(model ContextModel) *ContextExtractor {
	return &ContextExtractor{model: model}
}

// Extract derives a context string for texts submitted without one. This is
// a non-critical path: any failure falls back to a generic context rather
// than failing the analysis.
func (e *ContextExtractor) Extract(ctx context.Context, text string) (string, *ContextDetails) {
	content, err := e.model.ExtractContext(ctx, text)
	if err != nil {
		logger.Error("Context extraction failed", zap.Error(err))
		return "General comprehension analysis", &ContextDetails{}
	}

	var details ContextDetails
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &details); err != nil {
		logger.Warn("Context extraction response unparseable", zap.Int("length", len(content)))
		return "General text analysis context", &ContextDetails{RawResponse: content}
	}

	contextString := fmt.Sprintf("Topic: %s | Domain: %s | Type: %s",
		orDefault(details.Topic, "General"),
		orDefault(details.Domain, "General"),
		orDefault(details.TextType, "Text"),
	)

	return contextString, &details
}

func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	if match := jsonObjectPattern.FindString(content); match != "" {
		return match
	}
	return content
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
