package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func segmentsWithSimilarity(sims ...float64) []ScoredSegment {
	segments := make([]ScoredSegment, len(sims))
	for i, s := range sims {
		segments[i] = ScoredSegment{Similarity: s}
	}
	return segments
}

func TestNeedsEscalation(t *testing.T) {
	fiftyWords := strings.Repeat("word ", 50)
	fortyWords := strings.Repeat("word ", 40)

	tests := []struct {
		name          string
		overall       float64
		segments      []ScoredSegment
		understanding string
		original      string
		want          bool
	}{
		{
			name:          "very low similarity with short answer",
			overall:       0.2,
			segments:      segmentsWithSimilarity(0.3, 0.3),
			understanding: "no idea at all",
			original:      fiftyWords,
			want:          true,
		},
		{
			name:          "most segments missed",
			overall:       0.3,
			segments:      segmentsWithSimilarity(0.1, 0.1, 0.1, 0.1, 0.5),
			understanding: fortyWords,
			original:      fiftyWords,
			want:          true,
		},
		{
			name:          "low similarity with tiny length ratio",
			overall:       0.28,
			segments:      segmentsWithSimilarity(0.3, 0.3),
			understanding: "too short answer here",
			original:      fiftyWords,
			want:          true,
		},
		{
			name:          "explicit request marker",
			overall:       0.9,
			segments:      segmentsWithSimilarity(0.9),
			understanding: "Please give me a detailed analysis of my answer " + fortyWords,
			original:      fiftyWords,
			want:          true,
		},
		{
			name:          "chinese request marker",
			overall:       0.9,
			segments:      segmentsWithSimilarity(0.9),
			understanding: "请提供详细分析 " + fortyWords,
			original:      fiftyWords,
			want:          true,
		},
		{
			name:          "decent comprehension stays local",
			overall:       0.5,
			segments:      segmentsWithSimilarity(0.5, 0.5, 0.5, 0.5, 0.5),
			understanding: fortyWords,
			original:      fortyWords,
			want:          false,
		},
		{
			name:          "low overall but proportionate long answer",
			overall:       0.28,
			segments:      segmentsWithSimilarity(0.3, 0.3, 0.3),
			understanding: fortyWords,
			original:      fiftyWords,
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NeedsEscalation(tt.overall, tt.segments, tt.understanding, tt.original)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNeedsEscalation_EmptyOriginal(t *testing.T) {
	// Word count of the original floors at one; no division by zero, and the
	// inflated ratio combined with low similarity escalates.
	got := NeedsEscalation(0.28, segmentsWithSimilarity(0.5), "some understanding text goes here now more words", "")
	assert.True(t, got)
}
