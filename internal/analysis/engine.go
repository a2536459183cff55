package analysis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/metrics"
	"github.com/word-munch/backend/pkg/logger"
)

// AnalyzeRequest is one comprehension check. Context is optional caller
// supplied background; AutoContext asks the engine to derive it from the
// original text when none was given.
type AnalyzeRequest struct {
	OriginalText      string
	UserUnderstanding string
	Context           string
	AutoContext       bool
}

// Engine runs the full comprehension pipeline: segment, score, decide on
// escalation, and synthesize detailed feedback when warranted.
type Engine struct {
	scorer      *Scorer
	extractor   *ContextExtractor
	synthesizer *FeedbackSynthesizer
}

func NewEngine(scorer *Scorer, extractor *ContextExtractor, synthesizer *FeedbackSynthesizer) *Engine {
	return &Engine{
		scorer:      scorer,
		extractor:   extractor,
		synthesizer: synthesizer,
	}
}

func (e *Engine) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error) {
	start := time.Now()

	contextText := req.Context
	var details *ContextDetails
	if contextText == "" && req.AutoContext && e.extractor != nil {
		contextText, details = e.extractor.Extract(ctx, req.OriginalText)
	}

	result, err := e.scorer.Score(ctx, req.OriginalText, req.UserUnderstanding, contextText)
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to score comprehension: %w", err)
	}
	result.ExtractedContext = details

	escalated := NeedsEscalation(result.OverallSimilarity, result.Segments, req.UserUnderstanding, req.OriginalText)
	result.NeedsDetailedFeedback = escalated
	if escalated {
		metrics.EscalationsTotal.Inc()
		result.DetailedFeedback = e.synthesizer.Synthesize(ctx, req.OriginalText, req.UserUnderstanding, result)
	}

	metrics.AnalysisTotal.WithLabelValues("success").Inc()
	metrics.AnalysisDuration.WithLabelValues(strconv.FormatBool(escalated)).Observe(time.Since(start).Seconds())
	metrics.OverallSimilarity.Observe(result.OverallSimilarity)
	metrics.SegmentsPerAnalysis.Observe(float64(len(result.Segments)))

	logger.Info("Comprehension analysis completed",
		zap.Float64("overall_similarity", result.OverallSimilarity),
		zap.Int("segments", len(result.Segments)),
		zap.Bool("escalated", escalated),
		zap.Bool("context_used", result.ContextUsed),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}
