package cognitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	profile := DefaultProfile("user-1", 30)

	assert.Equal(t, "user-1", profile.UserID)
	assert.Equal(t, 30, profile.PeriodDays)
	assert.Zero(t, profile.TotalAnalyses)
	assert.Equal(t, RadarData{
		Comprehension: 50, Coverage: 50, Depth: 50,
		Accuracy: 50, Analysis: 50, Synthesis: 50,
	}, profile.RadarData)
	require.Len(t, profile.Suggestions, 1)
	assert.Equal(t, "Begin Your Cognitive Journey", profile.Suggestions[0].Title)
}

func TestAggregateProfile_EmptyFallsBackToDefault(t *testing.T) {
	profile := AggregateProfile("user-1", 7, nil)
	assert.Zero(t, profile.TotalAnalyses)
	assert.Equal(t, 50.0, profile.RadarData.Comprehension)
}

func strongRecord(date string, similarity float64) *CognitiveRecord {
	return &CognitiveRecord{
		DateString:           date,
		OverallSimilarity:    similarity,
		CoverageScore:        similarity,
		DepthScore:           similarity,
		AccuracyScore:        similarity,
		DepthLevel:           "critical",
		UnderstandingPattern: "big-picture",
		BloomLevel:           "analyze",
		TextComplexity:       "medium",
		TextDomain:           "science",
		ErrorType:            "none",
	}
}

func TestAggregateProfile_RadarScaling(t *testing.T) {
	records := []*CognitiveRecord{strongRecord("2025-03-01", 0.8)}
	profile := AggregateProfile("u", 30, records)

	assert.Equal(t, 1, profile.TotalAnalyses)
	assert.InDelta(t, 80.0, profile.RadarData.Comprehension, 1e-9)
	assert.InDelta(t, 80.0, profile.RadarData.Coverage, 1e-9)
	// depth_level critical maps to full analysis capability.
	assert.InDelta(t, 100.0, profile.RadarData.Analysis, 1e-9)
	// big-picture pattern maps to full synthesis.
	assert.InDelta(t, 100.0, profile.RadarData.Synthesis, 1e-9)
}

func TestRecordRadar_Precedence(t *testing.T) {
	r := &CognitiveRecord{DepthLevel: "deep", HasAnalysis: true, BloomLevel: "create"}
	_, _, _, _, analysisAxis, _ := recordRadar(r)
	assert.InDelta(t, 0.8, analysisAxis, 1e-9, "depth level wins over the weaker rules")

	r = &CognitiveRecord{BloomLevel: "evaluate"}
	_, _, _, _, analysisAxis, _ = recordRadar(r)
	assert.InDelta(t, 0.5, analysisAxis, 1e-9)

	r = &CognitiveRecord{UnderstandingStyle: "analytical"}
	_, _, _, _, _, synthesis := recordRadar(r)
	assert.InDelta(t, 0.7, synthesis, 1e-9)

	r = &CognitiveRecord{}
	_, _, _, _, analysisAxis, synthesis = recordRadar(r)
	assert.InDelta(t, 0.2, analysisAxis, 1e-9)
	assert.InDelta(t, 0.3, synthesis, 1e-9)
}

func TestImprovementRate(t *testing.T) {
	t.Run("too few records", func(t *testing.T) {
		records := []*CognitiveRecord{
			strongRecord("2025-03-04", 0.9),
			strongRecord("2025-03-03", 0.5),
			strongRecord("2025-03-02", 0.5),
			strongRecord("2025-03-01", 0.5),
		}
		assert.Equal(t, 0.0, improvementRate(records))
	})

	t.Run("newer half against older half", func(t *testing.T) {
		// Newest first: recent avg 0.8 over three, early avg 0.4 over three.
		records := []*CognitiveRecord{
			strongRecord("2025-03-06", 0.8),
			strongRecord("2025-03-05", 0.8),
			strongRecord("2025-03-04", 0.8),
			strongRecord("2025-03-03", 0.4),
			strongRecord("2025-03-02", 0.4),
			strongRecord("2025-03-01", 0.4),
		}
		assert.InDelta(t, 40.0, improvementRate(records), 1e-9)
	})
}

func TestGrowthTrend(t *testing.T) {
	records := []*CognitiveRecord{
		strongRecord("2025-03-02", 0.6),
		strongRecord("2025-03-02", 0.8),
		strongRecord("2025-03-01", 0.5),
	}

	trend := growthTrend(records)
	require.Len(t, trend, 2)
	assert.Equal(t, "2025-03-01", trend[0].Date)
	assert.InDelta(t, 50.0, trend[0].Similarity, 1e-9)
	assert.Equal(t, 1, trend[0].Count)
	assert.Equal(t, "2025-03-02", trend[1].Date)
	assert.InDelta(t, 70.0, trend[1].Similarity, 1e-9, "same-day records average")
	assert.InDelta(t, 70.0, trend[1].Depth, 1e-9)
	assert.InDelta(t, 70.0, trend[1].Coverage, 1e-9)
	assert.Equal(t, 2, trend[1].Count)
}

func TestGrowthTrend_SeparateSeries(t *testing.T) {
	records := []*CognitiveRecord{
		{DateString: "2025-03-01", OverallSimilarity: 0.6, DepthScore: 0.4, CoverageScore: 0.8},
	}

	trend := growthTrend(records)
	require.Len(t, trend, 1)
	assert.InDelta(t, 60.0, trend[0].Similarity, 1e-9)
	assert.InDelta(t, 40.0, trend[0].Depth, 1e-9)
	assert.InDelta(t, 80.0, trend[0].Coverage, 1e-9)
}

func TestGrowthTrend_CapsAtFourteenDays(t *testing.T) {
	records := make([]*CognitiveRecord, 0, 20)
	for day := 1; day <= 20; day++ {
		records = append(records, strongRecord(dateString(day), 0.5))
	}

	trend := growthTrend(records)
	require.Len(t, trend, 14)
	assert.Equal(t, dateString(7), trend[0].Date, "oldest days fall off")
}

func dateString(day int) string {
	return "2025-03-" + twoDigits(day)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + string(rune('0'+n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

func TestClassifySkills(t *testing.T) {
	strengths, weaknesses := classifySkills(RadarData{
		Comprehension: 85,
		Coverage:      72,
		Depth:         65,
		Accuracy:      55,
		Analysis:      45,
		Synthesis:     30,
	})

	assert.Equal(t, []string{"Excellent Reading Comprehension", "Strong Information Coverage"}, strengths)
	assert.Equal(t, []string{"Improve Understanding Accuracy", "Develop Logical Analysis", "Develop Synthesis Ability"}, weaknesses)
}

func TestErrorPatterns(t *testing.T) {
	records := []*CognitiveRecord{
		{ErrorType: "main_idea"},
		{ErrorType: "main_idea"},
		{ErrorType: "logic"},
		{ErrorType: "none"},
		{ErrorType: ""},
	}

	patterns := errorPatterns(records)
	require.Len(t, patterns, 2)
	assert.Equal(t, "main_idea", patterns[0].ErrorType)
	assert.Equal(t, "Main Idea", patterns[0].Label)
	assert.Equal(t, 2, patterns[0].Count)
	assert.InDelta(t, 66.7, patterns[0].Percentage, 1e-9)
	assert.NotEmpty(t, patterns[0].Suggestion)
	assert.Equal(t, "logic", patterns[1].ErrorType)
	assert.InDelta(t, 33.3, patterns[1].Percentage, 1e-9)
}

func TestPersonalizedSuggestions_WeakAxesFirst(t *testing.T) {
	radar := RadarData{
		Comprehension: 90, Coverage: 90, Depth: 40,
		Accuracy: 90, Analysis: 35, Synthesis: 90,
	}
	records := []*CognitiveRecord{strongRecord("2025-03-01", 0.5)}

	suggestions := personalizedSuggestions(radar, records)
	require.NotEmpty(t, suggestions)
	assert.LessOrEqual(t, len(suggestions), 3)
	assert.Equal(t, "Practice Logical Analysis", suggestions[0].Title, "lowest axis first")
	assert.Equal(t, "Go Beyond the Surface", suggestions[1].Title)
}

func TestPerformanceTrends(t *testing.T) {
	few := performanceTrends([]*CognitiveRecord{strongRecord("d", 0.5)})
	assert.Equal(t, "stable", few.Direction)

	records := []*CognitiveRecord{
		strongRecord("2025-03-08", 0.9),
		strongRecord("2025-03-07", 0.9),
		strongRecord("2025-03-06", 0.9),
		strongRecord("2025-03-05", 0.9),
		strongRecord("2025-03-04", 0.9),
		strongRecord("2025-03-03", 0.3),
		strongRecord("2025-03-02", 0.3),
		strongRecord("2025-03-01", 0.3),
	}
	trends := performanceTrends(records)
	assert.Equal(t, "improving", trends.Direction)
	assert.Greater(t, trends.RecentAverage, trends.OverallAverage)
}

func TestPerformanceTrends_Direction(t *testing.T) {
	// Newest first. Any recent gain over the overall mean reads as
	// improving; only drops of 0.05 or more read as declining.
	build := func(recent, oldest float64) []*CognitiveRecord {
		records := make([]*CognitiveRecord, 0, 6)
		for i := 0; i < 5; i++ {
			records = append(records, strongRecord("2025-03-02", recent))
		}
		return append(records, strongRecord("2025-03-01", oldest))
	}

	// Recent 0.52 vs overall 0.50: a small genuine gain.
	assert.Equal(t, "improving", performanceTrends(build(0.52, 0.4)).Direction)
	// Recent 0.48 vs overall 0.50: inside the stable band.
	assert.Equal(t, "stable", performanceTrends(build(0.48, 0.6)).Direction)
	// Recent 0.30 vs overall 0.40.
	assert.Equal(t, "declining", performanceTrends(build(0.3, 0.9)).Direction)
}

func TestConsistencyMetrics(t *testing.T) {
	assert.Equal(t, ConsistencyMetrics{}, consistencyMetrics(nil))

	steady := []*CognitiveRecord{
		{OverallSimilarity: 0.5, DepthScore: 0.5},
		{OverallSimilarity: 0.5, DepthScore: 0.5},
	}
	metrics := consistencyMetrics(steady)
	assert.InDelta(t, 100.0, metrics.SimilarityConsistency, 1e-9)
	assert.InDelta(t, 100.0, metrics.DepthConsistency, 1e-9)
	assert.InDelta(t, 100.0, metrics.CombinedConsistency, 1e-9)

	// Similarity variance 0.04 scores 84; steady depths stay at 100 and
	// pull the combined score up to 92.
	mixed := []*CognitiveRecord{
		{OverallSimilarity: 0.9, DepthScore: 0.8},
		{OverallSimilarity: 0.5, DepthScore: 0.8},
	}
	metrics = consistencyMetrics(mixed)
	assert.InDelta(t, 84.0, metrics.SimilarityConsistency, 1e-9)
	assert.InDelta(t, 100.0, metrics.DepthConsistency, 1e-9)
	assert.InDelta(t, 92.0, metrics.CombinedConsistency, 1e-9)

	// Variance 0.25 saturates the similarity score at zero.
	swing := []*CognitiveRecord{
		{OverallSimilarity: 1.0, DepthScore: 0.5},
		{OverallSimilarity: 0.0, DepthScore: 0.5},
	}
	metrics = consistencyMetrics(swing)
	assert.Zero(t, metrics.SimilarityConsistency)
	assert.InDelta(t, 100.0, metrics.DepthConsistency, 1e-9)
	assert.InDelta(t, 50.0, metrics.CombinedConsistency, 1e-9)
}

func TestLearningPatterns_PerformanceAverages(t *testing.T) {
	records := []*CognitiveRecord{
		{OverallSimilarity: 0.8, TextComplexity: "simple", TextDomain: "science"},
		{OverallSimilarity: 0.6, TextComplexity: "simple", TextDomain: "science"},
		{OverallSimilarity: 0.4, TextComplexity: "complex", TextDomain: "history"},
		{OverallSimilarity: 0.5},
	}

	patterns := learningPatterns(records)
	assert.InDelta(t, 0.7, patterns.ComplexityPreferences["simple"], 1e-9)
	assert.InDelta(t, 0.4, patterns.ComplexityPreferences["complex"], 1e-9)
	assert.InDelta(t, 0.5, patterns.ComplexityPreferences["medium"], 1e-9, "blank complexity buckets as medium")
	assert.InDelta(t, 0.7, patterns.DomainPatterns["science"], 1e-9)
	assert.InDelta(t, 0.5, patterns.DomainPatterns["general"], 1e-9, "blank domain buckets as general")
}
