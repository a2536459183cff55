package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validFeedbackJSON = `{
	"misunderstandings": ["missed the causal link"],
	"cognitive_level": "understand",
	"actionable_suggestions": ["re-read paragraph two", "note the transition words", "summarize each section"],
	"error_type": "logic",
	"bloom_taxonomy": "analyze"
}`

func TestParseFeedback_StrictJSON(t *testing.T) {
	record, ok := ParseFeedback(validFeedbackJSON)
	require.True(t, ok)
	assert.Equal(t, "understand", record.CognitiveLevel)
	assert.Equal(t, "logic", record.ErrorType)
	assert.Equal(t, "analyze", record.BloomTaxonomy)
	assert.Len(t, record.ActionableSuggestions, 3)
}

func TestParseFeedback_WrappedInProse(t *testing.T) {
	content := "Here is my analysis:\n```json\n" + validFeedbackJSON + "\n```\nHope that helps!"
	record, ok := ParseFeedback(content)
	require.True(t, ok)
	assert.Equal(t, "understand", record.CognitiveLevel)
	assert.Equal(t, []string{"missed the causal link"}, record.Misunderstandings)
}

func TestParseFeedback_ScrapedFields(t *testing.T) {
	// Broken JSON (trailing comma) that still carries the fields.
	content := `{"cognitive_level": "apply", "actionable_suggestions": ["focus on examples", "test yourself"],}`
	record, ok := ParseFeedback(content)
	require.True(t, ok)
	assert.Equal(t, "apply", record.CognitiveLevel)
	assert.Equal(t, []string{"focus on examples", "test yourself"}, record.ActionableSuggestions)
	// Scrape layer fills defaults for absent fields.
	assert.Equal(t, "apply", record.BloomTaxonomy)
	assert.Equal(t, "main_idea", record.ErrorType)
}

func TestParseFeedback_Unusable(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"plain prose", "The user seems to have understood most of the text."},
		{"missing suggestions", `{"cognitive_level": "apply"` + "bad json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseFeedback(tt.content)
			assert.False(t, ok)
		})
	}
}

type stubFeedbackModel struct {
	response string
	err      error
}

func (s *stubFeedbackModel) DetailedFeedback(ctx context.Context, originalText, userUnderstanding string, overallSimilarity float64, missedSegments []string) (string, error) {
	return s.response, s.err
}

func TestSynthesize_TransportFallback(t *testing.T) {
	f := NewFeedbackSynthesizer(&stubFeedbackModel{err: errors.New("connection refused")})
	record := f.Synthesize(context.Background(), "original", "understanding", &AnalysisResult{})

	require.NotNil(t, record)
	assert.Equal(t, "comprehensive_understanding", record.ErrorType)
	assert.Equal(t, "understand", record.CognitiveLevel)
	assert.NotEmpty(t, record.ActionableSuggestions)
}

func TestSynthesize_ParseFallback(t *testing.T) {
	f := NewFeedbackSynthesizer(&stubFeedbackModel{response: "sorry, I cannot produce JSON today"})
	record := f.Synthesize(context.Background(), "original", "understanding", &AnalysisResult{})

	require.NotNil(t, record)
	assert.Equal(t, "main_idea", record.ErrorType)
	assert.NotEmpty(t, record.Misunderstandings)
}

func TestSynthesize_Success(t *testing.T) {
	f := NewFeedbackSynthesizer(&stubFeedbackModel{response: validFeedbackJSON})
	record := f.Synthesize(context.Background(), "original", "understanding", &AnalysisResult{
		Segments: segmentsWithSimilarity(0.1, 0.2, 0.9),
	})

	require.NotNil(t, record)
	assert.Equal(t, "logic", record.ErrorType)
}

func TestWorstSegments(t *testing.T) {
	segments := []ScoredSegment{
		{Segment: Segment{Text: "first weak"}, Similarity: 0.1},
		{Segment: Segment{Text: "strong"}, Similarity: 0.9},
		{Segment: Segment{Text: "second weak"}, Similarity: 0.2},
		{Segment: Segment{Text: "third weak"}, Similarity: 0.3},
	}

	missed := worstSegments(segments)
	assert.Equal(t, []string{"first weak", "second weak"}, missed, "capped at two, in segment order")
}
