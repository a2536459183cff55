package analysis

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/word-munch/backend/pkg/logger"
	"github.com/word-munch/backend/pkg/textutil"
)

// FeedbackRecord is the structured critique produced when an analysis
// escalates. Either model-derived or one of the fixed fallbacks.
type FeedbackRecord struct {
	Misunderstandings     []string `json:"misunderstandings"`
	CognitiveLevel        string   `json:"cognitive_level"`
	ActionableSuggestions []string `json:"actionable_suggestions"`
	ErrorType             string   `json:"error_type"`
	BloomTaxonomy         string   `json:"bloom_taxonomy"`
}

const (
	maxGroundingSegments    = 2
	maxGroundingSegmentLen  = 100
	groundingSimilarityBand = 0.4
)

// FeedbackModel is the generate() capability used for critiques.
type FeedbackModel interface {
	DetailedFeedback(ctx context.Context, originalText, userUnderstanding string, overallSimilarity float64, missedSegments []string) (string, error)
}

type FeedbackSynthesizer struct {
	model FeedbackModel
}

func NewFeedbackSynthesizer(model FeedbackModel) *FeedbackSynthesizer {
	return &FeedbackSynthesizer{model: model}
}

// Synthesize requests a structured critique grounded on the worst-scoring
// segments. Never fails: transport and parse problems both degrade to a
// fixed fallback record.
func (f *FeedbackSynthesizer) Synthesize(ctx context.Context, originalText, userUnderstanding string, result *AnalysisResult) *FeedbackRecord {
	missed := worstSegments(result.Segments)

	content, err := f.model.DetailedFeedback(ctx, originalText, userUnderstanding, result.OverallSimilarity, missed)
	if err != nil {
		logger.Error("Detailed feedback request failed", zap.Error(err))
		return transportFallbackRecord()
	}

	record, ok := ParseFeedback(content)
	if !ok {
		logger.Warn("Detailed feedback response unparseable", zap.Int("length", len(content)))
		return parseFallbackRecord()
	}

	return record
}

// worstSegments selects up to two segments below the grounding band,
// truncated so the prompt stays bounded regardless of input size.
func worstSegments(segments []ScoredSegment) []string {
	missed := make([]string, 0, maxGroundingSegments)
	for _, s := range segments {
		if s.Similarity >= groundingSimilarityBand {
			continue
		}
		missed = append(missed, textutil.Truncate(s.Text, maxGroundingSegmentLen))
		if len(missed) == maxGroundingSegments {
			break
		}
	}
	return missed
}

var (
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	stringFieldPat    = map[string]*regexp.Regexp{
		"cognitive_level": regexp.MustCompile(`"cognitive_level"\s*:\s*"([^"]+)"`),
		"error_type":      regexp.MustCompile(`"error_type"\s*:\s*"([^"]+)"`),
		"bloom_taxonomy":  regexp.MustCompile(`"bloom_taxonomy"\s*:\s*"([^"]+)"`),
	}
	listFieldPat = map[string]*regexp.Regexp{
		"misunderstandings":      regexp.MustCompile(`"misunderstandings"\s*:\s*\[(.*?)\]`),
		"actionable_suggestions": regexp.MustCompile(`"actionable_suggestions"\s*:\s*\[(.*?)\]`),
	}
	quotedString = regexp.MustCompile(`"([^"]*)"`)
)

// ParseFeedback tries a strict JSON decode, then a permissive field scrape.
// Returns false when neither layer yields a usable record.
func ParseFeedback(content string) (*FeedbackRecord, bool) {
	trimmed := strings.TrimSpace(content)

	var record FeedbackRecord
	if err := json.Unmarshal([]byte(trimmed), &record); err == nil && record.CognitiveLevel != "" {
		return &record, true
	}

	// Models often wrap the object in prose or code fences; retry on the
	// first {...} region.
	if match := jsonObjectPattern.FindString(trimmed); match != "" {
		if err := json.Unmarshal([]byte(match), &record); err == nil && record.CognitiveLevel != "" {
			return &record, true
		}
	}

	return scrapeFeedbackFields(trimmed)
}

func scrapeFeedbackFields(content string) (*FeedbackRecord, bool) {
	record := &FeedbackRecord{}

	if m := stringFieldPat["cognitive_level"].FindStringSubmatch(content); m != nil {
		record.CognitiveLevel = m[1]
	}
	if m := stringFieldPat["error_type"].FindStringSubmatch(content); m != nil {
		record.ErrorType = m[1]
	}
	if m := stringFieldPat["bloom_taxonomy"].FindStringSubmatch(content); m != nil {
		record.BloomTaxonomy = m[1]
	}
	if m := listFieldPat["misunderstandings"].FindStringSubmatch(content); m != nil {
		record.Misunderstandings = scrapeQuotedStrings(m[1])
	}
	if m := listFieldPat["actionable_suggestions"].FindStringSubmatch(content); m != nil {
		record.ActionableSuggestions = scrapeQuotedStrings(m[1])
	}

	if record.CognitiveLevel == "" || len(record.ActionableSuggestions) == 0 {
		return nil, false
	}

	if record.BloomTaxonomy == "" {
		record.BloomTaxonomy = record.CognitiveLevel
	}
	if record.ErrorType == "" {
		record.ErrorType = "main_idea"
	}

	return record, true
}

func scrapeQuotedStrings(listBody string) []string {
	matches := quotedString.FindAllStringSubmatch(listBody, -1)
	values := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m[1]); s != "" {
			values = append(values, s)
		}
	}
	return values
}

// parseFallbackRecord is returned when the model responded but the response
// could not be parsed.
func parseFallbackRecord() *FeedbackRecord {
	return &FeedbackRecord{
		Misunderstandings: []string{"Need more careful understanding of key points"},
		CognitiveLevel:    "understand",
		ActionableSuggestions: []string{
			"Re-read focusing on main arguments",
			"Identify key supporting evidence",
			"Note author's tone and attitude",
		},
		ErrorType:     "main_idea",
		BloomTaxonomy: "understand",
	}
}

// transportFallbackRecord is returned when the generation capability itself
// failed.
func transportFallbackRecord() *FeedbackRecord {
	return &FeedbackRecord{
		Misunderstandings: []string{"General comprehension gap"},
		CognitiveLevel:    "understand",
		ActionableSuggestions: []string{
			"Read the text multiple times",
			"Focus on key information and connections",
			"Practice summarizing main points",
		},
		ErrorType:     "comprehensive_understanding",
		BloomTaxonomy: "understand",
	}
}
