package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/word-munch/backend/internal/cache/redis"
	"github.com/word-munch/backend/pkg/logger"
	"github.com/word-munch/backend/pkg/textutil"
)

// Tier thresholds for a single segment's similarity. Inclusive lower bounds.
const (
	tierExcellentMin = 0.75
	tierGoodMin      = 0.55
	tierFairMin      = 0.35
	tierPartialMin   = 0.25
)

// Stats thresholds. High and medium are independent counts, not a
// partition: a 0.9 segment counts in both.
const (
	statsHighMin   = 0.8
	statsMediumMin = 0.4
)

const maxSuggestions = 3

// precedingContextChars bounds how much preceding original text is prepended
// to a contextual segment before embedding.
const precedingContextChars = 30

type SimilarityTier string

const (
	TierExcellent SimilarityTier = "excellent"
	TierGood      SimilarityTier = "good"
	TierFair      SimilarityTier = "fair"
	TierPartial   SimilarityTier = "partial"
	TierPoor      SimilarityTier = "poor"
)

type ScoredSegment struct {
	Segment
	Similarity float64        `json:"similarity"`
	Tier       SimilarityTier `json:"tier"`
}

type AnalysisStats struct {
	TotalSegments         int `json:"total_segments"`
	HighSimilarityCount   int `json:"high_similarity_count"`
	MediumSimilarityCount int `json:"medium_similarity_count"`
	LowSimilarityCount    int `json:"low_similarity_count"`
}

type AnalysisResult struct {
	OverallSimilarity     float64         `json:"overall_similarity"`
	Segments              []ScoredSegment `json:"segments"`
	Suggestions           []string        `json:"suggestions"`
	NeedsDetailedFeedback bool            `json:"needs_detailed_feedback"`
	ContextUsed           bool            `json:"context_used"`
	Stats                 AnalysisStats   `json:"analysis_stats"`
	DetailedFeedback      *FeedbackRecord `json:"detailed_feedback,omitempty"`
	ExtractedContext      *ContextDetails `json:"extracted_context,omitempty"`
}

// Embedder is the embed(text) -> vector capability.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// EmbeddingCache is the tiered content-hash cache in front of the embedder.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, tier redis.Tier, textHash string) ([]float64, bool, error)
	SetEmbedding(ctx context.Context, tier redis.Tier, textHash string, embedding []float64) error
}

type Scorer struct {
	embedder    Embedder
	cache       EmbeddingCache
	segmenter   *Segmenter
	maxParallel int
}

func NewScorer(embedder Embedder, cache EmbeddingCache, segmenter *Segmenter, maxParallel int) *Scorer {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Scorer{
		embedder:    embedder,
		cache:       cache,
		segmenter:   segmenter,
		maxParallel: maxParallel,
	}
}

// Score computes the comprehension analysis for one (original, understanding)
// pair. The original text must produce at least one segment.
func (s *Scorer) Score(ctx context.Context, originalText, userUnderstanding, contextText string) (*AnalysisResult, error) {
	segments := s.segmenter.Segment(ctx, originalText)
	if len(segments) == 0 {
		return nil, fmt.Errorf("text produced no segments")
	}

	// The user's understanding is personalized single-use text; never cached.
	userEmbedding, err := s.embedder.GenerateEmbedding(ctx, enhanceUserUnderstanding(userUnderstanding, contextText))
	if err != nil {
		return nil, fmt.Errorf("failed to embed user understanding: %w", err)
	}

	similarities, err := s.scoreSegments(ctx, segments, originalText, contextText, userEmbedding)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredSegment, len(segments))
	sum := 0.0
	for i, seg := range segments {
		scored[i] = ScoredSegment{
			Segment:    seg,
			Similarity: similarities[i],
			Tier:       ClassifySimilarity(similarities[i]),
		}
		sum += similarities[i]
	}

	overall := sum / float64(len(scored))

	result := &AnalysisResult{
		OverallSimilarity:     overall,
		Segments:              scored,
		Suggestions:           GenerateSuggestions(scored, overall),
		NeedsDetailedFeedback: NeedsEscalation(overall, scored, userUnderstanding, originalText),
		ContextUsed:           strings.TrimSpace(contextText) != "",
		Stats:                 computeStats(scored),
	}

	logger.Info("Comprehension analysis complete",
		zap.Float64("overall_similarity", overall),
		zap.Int("segments", len(scored)),
		zap.Bool("needs_detailed_feedback", result.NeedsDetailedFeedback),
	)

	return result, nil
}

// scoreSegments embeds each segment and compares it to the user embedding.
// Embedding calls fan out concurrently; results are reassembled in segment
// order.
func (s *Scorer) scoreSegments(ctx context.Context, segments []Segment, originalText, contextText string, userEmbedding []float64) ([]float64, error) {
	similarities := make([]float64, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for i := range segments {
		i := i
		g.Go(func() error {
			embedding, err := s.segmentEmbedding(gctx, segments[i], originalText, contextText)
			if err != nil {
				return fmt.Errorf("failed to embed segment %d: %w", i, err)
			}
			similarities[i] = CosineSimilarity(userEmbedding, embedding)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return similarities, nil
}

// segmentEmbedding resolves one segment's embedding through the cache.
// Plain original-text segments use the 30-day tier; context-enhanced
// segments mix in request context and use the 7-day tier.
func (s *Scorer) segmentEmbedding(ctx context.Context, seg Segment, originalText, contextText string) ([]float64, error) {
	text := seg.Text
	tier := redis.TierEmbeddingOriginal
	if strings.TrimSpace(contextText) != "" {
		text = enhanceSegmentWithContext(seg.Text, originalText, contextText)
		tier = redis.TierEmbeddingSegment
	}

	hash := textutil.HashString(text)

	if s.cache != nil {
		embedding, found, err := s.cache.GetEmbedding(ctx, tier, hash)
		if err != nil {
			logger.Warn("Embedding cache read failed", zap.Error(err))
		}
		if found {
			return embedding, nil
		}
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetEmbedding(ctx, tier, hash, embedding); err != nil {
			logger.Warn("Embedding cache write failed", zap.Error(err))
		}
	}

	return embedding, nil
}

// CosineSimilarity returns dot(u,v) / (|u|*|v|), and 0.0 when either vector
// has zero magnitude.
func CosineSimilarity(u, v []float64) float64 {
	n := len(u)
	if len(v) < n {
		n = len(v)
	}

	var dot, magU, magV float64
	for i := 0; i < n; i++ {
		dot += u[i] * v[i]
	}
	for _, x := range u {
		magU += x * x
	}
	for _, x := range v {
		magV += x * x
	}

	if magU == 0 || magV == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(magU) * math.Sqrt(magV))
}

func ClassifySimilarity(similarity float64) SimilarityTier {
	switch {
	case similarity >= tierExcellentMin:
		return TierExcellent
	case similarity >= tierGoodMin:
		return TierGood
	case similarity >= tierFairMin:
		return TierFair
	case similarity >= tierPartialMin:
		return TierPartial
	default:
		return TierPoor
	}
}

func computeStats(segments []ScoredSegment) AnalysisStats {
	stats := AnalysisStats{TotalSegments: len(segments)}
	for _, s := range segments {
		if s.Similarity >= statsHighMin {
			stats.HighSimilarityCount++
		}
		if s.Similarity >= statsMediumMin {
			stats.MediumSimilarityCount++
		} else {
			stats.LowSimilarityCount++
		}
	}
	return stats
}

func enhanceUserUnderstanding(userUnderstanding, contextText string) string {
	if strings.TrimSpace(contextText) == "" {
		return userUnderstanding
	}
	return fmt.Sprintf("Context: %s. My understanding: %s", contextText, userUnderstanding)
}

// enhanceSegmentWithContext prefixes the request context and up to 30
// characters of preceding original text, when the segment sits deep enough
// into the source for a prefix to exist.
func enhanceSegmentWithContext(segmentText, fullText, contextText string) string {
	enhanced := fmt.Sprintf("Article context: %s. Segment: %s", contextText, segmentText)

	pos := strings.Index(fullText, segmentText)
	if pos > 20 {
		from := pos - precedingContextChars
		if from < 0 {
			from = 0
		}
		prefix := strings.TrimSpace(fullText[from:pos])
		if prefix != "" {
			enhanced = fmt.Sprintf("...%s %s", prefix, enhanced)
		}
	}

	return enhanced
}

// GenerateSuggestions produces up to three canned suggestions banded by the
// overall score. These cover the non-escalated path; escalated analyses get
// model feedback on top.
func GenerateSuggestions(segments []ScoredSegment, overall float64) []string {
	var suggestions []string

	poorCount := 0
	for _, s := range segments {
		if s.Similarity < statsMediumMin {
			poorCount++
		}
	}

	switch {
	case overall >= 0.6:
		suggestions = append(suggestions, "Excellent understanding! You've grasped the key concepts well")
	case overall >= 0.4:
		suggestions = append(suggestions, "Good comprehension of the main ideas")
		if poorCount > 0 {
			suggestions = append(suggestions, "Consider including more specific details from the original text")
		}
	case overall >= 0.25:
		suggestions = append(suggestions,
			"Your understanding may be correct but expressed differently",
			"Try using more specific terms from the original text for better matching",
			"Consider the author's exact examples and key phrases",
		)
	default:
		suggestions = append(suggestions,
			"Consider rereading the text to ensure you've captured the main points",
			"Focus on the core message and key supporting details",
			"Try to identify the author's primary argument or thesis",
		)
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}
