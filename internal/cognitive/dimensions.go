package cognitive

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/word-munch/backend/internal/analysis"
	"github.com/word-munch/backend/pkg/textutil"
)

// Dimension bandings are intentionally independent of the scorer's tier
// thresholds and of each other; each dimension defines its own.
const (
	coverageHighMin   = 0.7
	coverageMediumMin = 0.4

	accuracyExcellentMin = 0.8
	accuracyGoodMin      = 0.6
	accuracyPartialMin   = 0.3

	patternVarianceHigh  = 0.15
	patternAboveMeanBand = 0.2

	retentionDays = 90
)

// CognitiveRecord is one append-only row per (user, analysis event). Never
// mutated after creation; expires after the retention window.
type CognitiveRecord struct {
	RecordID    string `json:"record_id"`
	UserID      string `json:"user_id"`
	Timestamp   int64  `json:"timestamp"`
	DateString  string `json:"date_string"`
	WeekString  string `json:"week_string"`
	MonthString string `json:"month_string"`

	OverallSimilarity      float64 `json:"overall_similarity"`
	SegmentCount           int     `json:"segment_count"`
	HighAccuracySegments   int     `json:"high_accuracy_segments"`
	MediumAccuracySegments int     `json:"medium_accuracy_segments"`
	LowAccuracySegments    int     `json:"low_accuracy_segments"`

	CoverageScore    float64 `json:"coverage_score"`
	MissedKeyPoints  int     `json:"missed_key_points"`
	CoveredKeyPoints int     `json:"covered_key_points"`

	DepthLevel          string  `json:"depth_level"`
	DepthScore          float64 `json:"depth_score"`
	HasInferences       bool    `json:"has_inferences"`
	HasAnalysis         bool    `json:"has_analysis"`
	HasCriticalThinking bool    `json:"has_critical_thinking"`

	AccuracyScore         float64 `json:"accuracy_score"`
	Misconceptions        int     `json:"misconceptions"`
	PartialUnderstandings int     `json:"partial_understandings"`

	UnderstandingPattern string  `json:"understanding_pattern"`
	ConsistencyScore     float64 `json:"consistency_score"`
	ImprovementPotential float64 `json:"improvement_potential"`

	TextWordCount  int    `json:"text_word_count"`
	TextComplexity string `json:"text_complexity"`
	TextDomain     string `json:"text_domain"`

	UnderstandingWordCount int    `json:"understanding_word_count"`
	UnderstandingStyle     string `json:"understanding_style"`

	BloomLevel     string `json:"bloom_level"`
	CognitiveLevel string `json:"cognitive_level"`
	ErrorType      string `json:"error_type"`

	ContextUsed bool     `json:"context_used"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Suggestions []string `json:"suggestions"`
}

// RecordInput carries everything one analysis event contributes to a record.
type RecordInput struct {
	OriginalText      string
	UserUnderstanding string
	Result            *analysis.AnalysisResult
	Domain            string
	URL               string
	Title             string
}

type CoverageMetrics struct {
	CoverageScore    float64
	MissedKeyPoints  int
	CoveredKeyPoints int
}

type DepthMetrics struct {
	DepthLevel          string
	DepthScore          float64
	HasInferences       bool
	HasAnalysis         bool
	HasCriticalThinking bool
}

type AccuracyMetrics struct {
	AccuracyScore         float64
	Misconceptions        int
	PartialUnderstandings int
}

type PatternMetrics struct {
	UnderstandingPattern string
	ConsistencyScore     float64
	ImprovementPotential float64
}

// BuildRecord flattens one analysis result plus derived dimension metrics
// into a timestamped record.
func BuildRecord(userID string, input RecordInput, now time.Time) *CognitiveRecord {
	result := input.Result

	bloomLevel := "understand"
	cognitiveLevel := "understand"
	errorType := "none"
	if result.DetailedFeedback != nil {
		if result.DetailedFeedback.BloomTaxonomy != "" {
			bloomLevel = result.DetailedFeedback.BloomTaxonomy
		}
		if result.DetailedFeedback.CognitiveLevel != "" {
			cognitiveLevel = result.DetailedFeedback.CognitiveLevel
		}
		if result.DetailedFeedback.ErrorType != "" {
			errorType = result.DetailedFeedback.ErrorType
		}
	}

	coverage := AnalyzeCoverage(result.Segments)
	depth := AnalyzeDepth(input.UserUnderstanding, bloomLevel)
	accuracy := AnalyzeAccuracy(result.Segments)
	pattern := AnalyzePatterns(result.Segments)

	domain := input.Domain
	if domain == "" {
		domain = "general"
	}

	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]

	return &CognitiveRecord{
		RecordID:    fmt.Sprintf("cognitive_%s_%d_%s", userID, now.Unix(), suffix),
		UserID:      userID,
		Timestamp:   now.Unix(),
		DateString:  now.UTC().Format("2006-01-02"),
		WeekString:  weekString(now.UTC()),
		MonthString: now.UTC().Format("2006-01"),

		OverallSimilarity:      result.OverallSimilarity,
		SegmentCount:           len(result.Segments),
		HighAccuracySegments:   result.Stats.HighSimilarityCount,
		MediumAccuracySegments: result.Stats.MediumSimilarityCount,
		LowAccuracySegments:    result.Stats.LowSimilarityCount,

		CoverageScore:    coverage.CoverageScore,
		MissedKeyPoints:  coverage.MissedKeyPoints,
		CoveredKeyPoints: coverage.CoveredKeyPoints,

		DepthLevel:          depth.DepthLevel,
		DepthScore:          depth.DepthScore,
		HasInferences:       depth.HasInferences,
		HasAnalysis:         depth.HasAnalysis,
		HasCriticalThinking: depth.HasCriticalThinking,

		AccuracyScore:         accuracy.AccuracyScore,
		Misconceptions:        accuracy.Misconceptions,
		PartialUnderstandings: accuracy.PartialUnderstandings,

		UnderstandingPattern: pattern.UnderstandingPattern,
		ConsistencyScore:     pattern.ConsistencyScore,
		ImprovementPotential: pattern.ImprovementPotential,

		TextWordCount:  textutil.WordCount(input.OriginalText),
		TextComplexity: TextComplexity(input.OriginalText),
		TextDomain:     domain,

		UnderstandingWordCount: textutil.WordCount(input.UserUnderstanding),
		UnderstandingStyle:     UnderstandingStyle(input.UserUnderstanding),

		BloomLevel:     bloomLevel,
		CognitiveLevel: cognitiveLevel,
		ErrorType:      errorType,

		ContextUsed: result.ContextUsed,
		URL:         input.URL,
		Title:       input.Title,
		Suggestions: result.Suggestions,
	}
}

// ExpiresAt returns the cutoff after which the record may be purged.
func (r *CognitiveRecord) ExpiresAt() int64 {
	return r.Timestamp + retentionDays*24*60*60
}

// weekString formats the week-of-year with Sunday as the first day; days
// before the year's first Sunday fall in week 0.
func weekString(t time.Time) string {
	week := (t.YearDay() + 6 - int(t.Weekday())) / 7
	return fmt.Sprintf("%s-W%02d", t.Format("2006"), week)
}

// AnalyzeCoverage measures how much of the content the user touched.
func AnalyzeCoverage(segments []analysis.ScoredSegment) CoverageMetrics {
	if len(segments) == 0 {
		return CoverageMetrics{}
	}

	var high, medium, low int
	for _, s := range segments {
		switch {
		case s.Similarity >= coverageHighMin:
			high++
		case s.Similarity >= coverageMediumMin:
			medium++
		default:
			low++
		}
	}

	score := (float64(high) + 0.5*float64(medium)) / float64(len(segments))
	if score > 1.0 {
		score = 1.0
	}

	return CoverageMetrics{
		CoverageScore:    score,
		MissedKeyPoints:  low,
		CoveredKeyPoints: high,
	}
}

var (
	inferenceWords = []string{"because", "therefore", "implies", "suggests", "leads to", "results in", "consequently", "thus", "hence"}
	analysisWords  = []string{"analyze", "compare", "contrast", "evaluate", "assess", "examine", "relationship", "pattern", "structure"}
	criticalWords  = []string{"however", "although", "despite", "nevertheless", "on the other hand", "critique", "limitation", "weakness", "problem", "flaw"}
	synthesisWords = []string{"connect", "combine", "integrate", "overall", "conclusion", "implication", "broader", "significance"}
)

var bloomBaseScores = map[string]float64{
	"remember":   0.2,
	"understand": 0.4,
	"apply":      0.6,
	"analyze":    0.8,
	"evaluate":   0.9,
	"create":     1.0,
}

// AnalyzeDepth combines keyword markers in the user's wording with the Bloom
// base score to place the response on a shallow..critical scale.
func AnalyzeDepth(userUnderstanding, bloomLevel string) DepthMetrics {
	hasInferences := textutil.ContainsAny(userUnderstanding, inferenceWords)
	hasAnalysis := textutil.ContainsAny(userUnderstanding, analysisWords)
	hasCritical := textutil.ContainsAny(userUnderstanding, criticalWords)
	hasSynthesis := textutil.ContainsAny(userUnderstanding, synthesisWords)

	base, ok := bloomBaseScores[bloomLevel]
	if !ok {
		base = bloomBaseScores["understand"]
	}

	var score float64
	var level string
	switch {
	case hasCritical || hasSynthesis:
		score = base + 0.2
		level = "critical"
	case hasAnalysis:
		score = base + 0.1
		level = "deep"
	case hasInferences:
		score = base
		level = "surface"
	default:
		score = base - 0.1
		level = "shallow"
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.1 {
		score = 0.1
	}

	return DepthMetrics{
		DepthLevel:          level,
		DepthScore:          score,
		HasInferences:       hasInferences,
		HasAnalysis:         hasAnalysis,
		HasCriticalThinking: hasCritical || hasSynthesis,
	}
}

// AnalyzeAccuracy weights segments by band to score precision of
// understanding.
func AnalyzeAccuracy(segments []analysis.ScoredSegment) AccuracyMetrics {
	if len(segments) == 0 {
		return AccuracyMetrics{}
	}

	var excellent, good, partial, poor int
	for _, s := range segments {
		switch {
		case s.Similarity >= accuracyExcellentMin:
			excellent++
		case s.Similarity >= accuracyGoodMin:
			good++
		case s.Similarity >= accuracyPartialMin:
			partial++
		default:
			poor++
		}
	}

	score := (float64(excellent) + 0.8*float64(good) + 0.4*float64(partial)) / float64(len(segments))
	if score > 1.0 {
		score = 1.0
	}

	return AccuracyMetrics{
		AccuracyScore:         score,
		Misconceptions:        poor,
		PartialUnderstandings: partial,
	}
}

// AnalyzePatterns classifies the similarity distribution: a spread-out
// profile is detail-focused or big-picture depending on how many segments
// sit well above the mean, a tight profile is balanced.
func AnalyzePatterns(segments []analysis.ScoredSegment) PatternMetrics {
	if len(segments) == 0 {
		return PatternMetrics{UnderstandingPattern: "balanced", ImprovementPotential: 0.5}
	}

	var sum float64
	for _, s := range segments {
		sum += s.Similarity
	}
	mean := sum / float64(len(segments))

	var variance float64
	for _, s := range segments {
		d := s.Similarity - mean
		variance += d * d
	}
	variance /= float64(len(segments))

	pattern := "balanced"
	if variance > patternVarianceHigh {
		above := 0
		for _, s := range segments {
			if s.Similarity > mean+patternAboveMeanBand {
				above++
			}
		}
		if float64(above) > float64(len(segments))*0.4 {
			pattern = "detail-focused"
		} else {
			pattern = "big-picture"
		}
	}

	consistency := 1.0 - minFloat(variance*2, 1.0)

	var potential float64
	switch {
	case mean < 0.3:
		potential = 0.9
	case mean < 0.6:
		potential = 0.7
	case mean < 0.8:
		potential = 0.4
	default:
		potential = 0.2
	}

	return PatternMetrics{
		UnderstandingPattern: pattern,
		ConsistencyScore:     consistency,
		ImprovementPotential: potential,
	}
}

// TextComplexity buckets a text by average word length and average sentence
// length with fixed linear weights.
func TextComplexity(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "simple"
	}

	totalLen := 0
	for _, w := range words {
		totalLen += len(strings.Trim(w, ".,!?;:"))
	}
	avgWordLength := float64(totalLen) / float64(len(words))

	sentenceCount := 0
	for _, s := range strings.Split(text, ".") {
		if strings.TrimSpace(s) != "" {
			sentenceCount++
		}
	}
	if sentenceCount < 1 {
		sentenceCount = 1
	}
	avgSentenceLength := float64(len(words)) / float64(sentenceCount)

	score := avgWordLength*0.4 + avgSentenceLength*0.1

	switch {
	case score < 6:
		return "simple"
	case score < 9:
		return "medium"
	default:
		return "complex"
	}
}

var (
	detailStyleWords     = []string{"specific", "detail", "example", "instance", "particular", "precisely"}
	bigPictureStyleWords = []string{"overall", "general", "main", "summary", "broadly", "essentially"}
	analyticalStyleWords = []string{"analyze", "compare", "relationship", "pattern", "structure", "logic"}
	narrativeStyleWords  = []string{"story", "narrative", "describes", "tells", "explains", "shows"}
)

// UnderstandingStyle tags how the user expresses their understanding.
// First matching bucket wins.
func UnderstandingStyle(userUnderstanding string) string {
	switch {
	case textutil.ContainsAny(userUnderstanding, detailStyleWords):
		return "detail-oriented"
	case textutil.ContainsAny(userUnderstanding, bigPictureStyleWords):
		return "big-picture"
	case textutil.ContainsAny(userUnderstanding, analyticalStyleWords):
		return "analytical"
	case textutil.ContainsAny(userUnderstanding, narrativeStyleWords):
		return "narrative"
	default:
		return "descriptive"
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
