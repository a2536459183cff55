package analysis

import (
	"strings"

	"github.com/word-munch/backend/pkg/textutil"
)

// Escalation thresholds. Low similarity alone is not enough: a paraphrase in
// the user's own words scores low without reflecting a real misunderstanding,
// so escalation also requires a short response, mostly-failed segments, an
// abnormal length ratio, or an explicit request.
const (
	escalationLowOverall      = 0.25
	escalationShortWords      = 8
	escalationVeryLowSegment  = 0.2
	escalationVeryLowFraction = 0.6
	escalationRatioOverall    = 0.3
	escalationRatioMin        = 0.25
	escalationRatioMax        = 4.0
)

var detailedAnalysisMarkers = []string{"detailed analysis", "详细分析"}

// NeedsEscalation decides whether a model-generated critique is warranted.
// Pure and deterministic over its inputs.
func NeedsEscalation(overallSimilarity float64, segments []ScoredSegment, userUnderstanding, originalText string) bool {
	veryLowCount := 0
	for _, s := range segments {
		if s.Similarity < escalationVeryLowSegment {
			veryLowCount++
		}
	}

	userWords := textutil.WordCount(userUnderstanding)
	originalWords := textutil.WordCount(originalText)
	if originalWords < 1 {
		originalWords = 1
	}
	lengthRatio := float64(userWords) / float64(originalWords)

	// Very low similarity with a short answer: genuinely not understood.
	if overallSimilarity < escalationLowOverall && userWords < escalationShortWords {
		return true
	}

	// Most segments missed entirely.
	if float64(veryLowCount) > float64(len(segments))*escalationVeryLowFraction {
		return true
	}

	// Low similarity combined with an abnormally short or long response.
	if overallSimilarity < escalationRatioOverall &&
		(lengthRatio < escalationRatioMin || lengthRatio > escalationRatioMax) {
		return true
	}

	// Explicit request marker.
	lower := strings.ToLower(userUnderstanding)
	for _, marker := range detailedAnalysisMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}
