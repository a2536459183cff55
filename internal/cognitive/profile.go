package cognitive

import (
	"math"
	"sort"
	"strings"
)

const (
	radarStrongMin    = 70.0
	radarExcellentMin = 80.0
	radarWeakMax      = 60.0
	radarVeryWeakMax  = 50.0

	trendMaxPoints       = 14
	improvementMinEvents = 5
	maxListedSkills      = 3
	maxSuggestionCount   = 3
)

// CognitiveProfile is the aggregated view over one user's records for a
// rolling window. Produced on demand and cached; never stored durably.
type CognitiveProfile struct {
	UserID             string                 `json:"user_id"`
	PeriodDays         int                    `json:"period_days"`
	TotalAnalyses      int                    `json:"total_analyses"`
	RadarData          RadarData              `json:"radar_data"`
	GrowthTrend        []TrendPoint           `json:"growth_trend"`
	Strengths          []string               `json:"strengths"`
	Weaknesses         []string               `json:"weaknesses"`
	ImprovementRate    float64                `json:"improvement_rate"`
	BloomDistribution  map[string]int         `json:"bloom_distribution"`
	ErrorPatterns      []ErrorPattern         `json:"error_patterns"`
	Suggestions        []ProfileSuggestion    `json:"personalized_suggestions"`
	LearningPatterns   LearningPatterns       `json:"learning_patterns"`
	PerformanceTrends  PerformanceTrends      `json:"performance_trends"`
	ConsistencyMetrics ConsistencyMetrics     `json:"consistency_metrics"`
	Meta               map[string]interface{} `json:"meta,omitempty"`
}

// RadarData holds the six profile axes on a 0..100 scale.
type RadarData struct {
	Comprehension float64 `json:"comprehension"`
	Coverage      float64 `json:"coverage"`
	Depth         float64 `json:"depth"`
	Accuracy      float64 `json:"accuracy"`
	Analysis      float64 `json:"analysis"`
	Synthesis     float64 `json:"synthesis"`
}

// TrendPoint is one day's averages on a 0..100 scale.
type TrendPoint struct {
	Date       string  `json:"date"`
	Similarity float64 `json:"similarity"`
	Depth      float64 `json:"depth"`
	Coverage   float64 `json:"coverage"`
	Count      int     `json:"count"`
}

type ErrorPattern struct {
	ErrorType  string  `json:"error_type"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Suggestion string  `json:"suggestion"`
}

type ProfileSuggestion struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

// LearningPatterns reports mean similarity per text-complexity bucket and
// per domain, plus coarse time-of-use stats.
type LearningPatterns struct {
	TimePatterns          TimePatterns       `json:"time_patterns"`
	ComplexityPreferences map[string]float64 `json:"complexity_preferences"`
	DomainPatterns        map[string]float64 `json:"domain_patterns"`
}

type TimePatterns struct {
	MostActiveDays    []string `json:"most_active_days"`
	ConsistencyScore  float64  `json:"consistency_score"`
	AnalysisFrequency float64  `json:"analysis_frequency"`
}

type PerformanceTrends struct {
	OverallAverage float64 `json:"overall_average"`
	RecentAverage  float64 `json:"recent_average"`
	Direction      string  `json:"direction"`
	Consistency    float64 `json:"consistency"`
}

type ConsistencyMetrics struct {
	SimilarityConsistency float64 `json:"similarity_consistency"`
	DepthConsistency      float64 `json:"depth_consistency"`
	CombinedConsistency   float64 `json:"combined_consistency"`
}

var skillNames = map[string]string{
	"comprehension": "Reading Comprehension",
	"coverage":      "Information Coverage",
	"depth":         "Analytical Depth",
	"accuracy":      "Understanding Accuracy",
	"analysis":      "Logical Analysis",
	"synthesis":     "Synthesis Ability",
}

var skillSuggestions = map[string]ProfileSuggestion{
	"comprehension": {
		Icon:        "📖",
		Title:       "Strengthen Reading Comprehension",
		Description: "Your overall comprehension scores have room to grow.",
		Action:      "Re-read each passage once before writing your understanding.",
	},
	"coverage": {
		Icon:        "🗺️",
		Title:       "Cover More Key Points",
		Description: "Your summaries often miss parts of the text.",
		Action:      "Scan each paragraph and note one idea from it before summarizing.",
	},
	"depth": {
		Icon:        "🔍",
		Title:       "Go Beyond the Surface",
		Description: "Your responses tend to restate rather than interpret.",
		Action:      "Ask why the author makes each claim and include your answer.",
	},
	"accuracy": {
		Icon:        "🎯",
		Title:       "Tighten Your Accuracy",
		Description: "Some of your interpretations drift from what the text says.",
		Action:      "Quote a short phrase from the text to anchor each point you make.",
	},
	"analysis": {
		Icon:        "🧩",
		Title:       "Practice Logical Analysis",
		Description: "Analytical connections appear rarely in your responses.",
		Action:      "Compare two ideas from the text and state how they relate.",
	},
	"synthesis": {
		Icon:        "🔗",
		Title:       "Build Synthesis Skills",
		Description: "Your responses rarely tie the pieces into a whole.",
		Action:      "End each summary with one sentence on the text's broader significance.",
	},
}

var errorSuggestionMap = map[string]string{
	"main_idea":  "Practice stating the single central claim of a text in one sentence.",
	"evidence":   "Trace each conclusion back to the sentence that supports it.",
	"details":    "Slow down on lists, numbers, and qualifiers when reading.",
	"attitude":   "Watch for tone words that reveal the author's stance.",
	"logic":      "Map the argument: premise, reasoning, conclusion.",
	"inference":  "Ask what the text implies but does not state directly.",
	"evaluation": "Weigh the strength of the evidence before accepting a claim.",
}

var errorTargetedSuggestions = map[string]ProfileSuggestion{
	"main_idea": {
		Icon:        "💡",
		Title:       "Focus on the Main Idea",
		Description: "Your most common slip is missing the central point.",
		Action:      "Before summarizing, write the text's main claim in ten words or fewer.",
	},
	"evidence": {
		Icon:        "📎",
		Title:       "Anchor Claims in Evidence",
		Description: "Your responses often assert without support.",
		Action:      "For every claim you make, cite the part of the text it comes from.",
	},
	"details": {
		Icon:        "🔬",
		Title:       "Mind the Details",
		Description: "Specific facts and qualifiers slip past you.",
		Action:      "Note every number, name, and condition as you read.",
	},
}

const defaultErrorSuggestion = "Review the text once more and compare it against your summary."

// Radar computes per-axis capability for one record on a 0..1 scale.
// Analysis and synthesis are inferred from record markers by precedence.
func recordRadar(r *CognitiveRecord) (comprehension, coverage, depth, accuracy, analysisAxis, synthesis float64) {
	comprehension = r.OverallSimilarity
	coverage = r.CoverageScore
	depth = r.DepthScore
	accuracy = r.AccuracyScore

	switch {
	case r.DepthLevel == "critical":
		analysisAxis = 1.0
	case r.DepthLevel == "deep":
		analysisAxis = 0.8
	case r.HasAnalysis:
		analysisAxis = 0.6
	case r.BloomLevel == "analyze" || r.BloomLevel == "evaluate" || r.BloomLevel == "create":
		analysisAxis = 0.5
	default:
		analysisAxis = 0.2
	}

	switch {
	case r.UnderstandingPattern == "big-picture":
		synthesis = 1.0
	case r.HasCriticalThinking:
		synthesis = 0.8
	case r.UnderstandingStyle == "analytical":
		synthesis = 0.7
	case r.UnderstandingPattern == "balanced":
		synthesis = 0.6
	default:
		synthesis = 0.3
	}
	return
}

// AggregateProfile builds the full profile from a user's records. Records
// are expected newest first, as the store returns them.
func AggregateProfile(userID string, periodDays int, records []*CognitiveRecord) *CognitiveProfile {
	if len(records) == 0 {
		return DefaultProfile(userID, periodDays)
	}

	var sumC, sumCov, sumD, sumA, sumAn, sumSy float64
	for _, r := range records {
		c, cov, d, a, an, sy := recordRadar(r)
		sumC += c
		sumCov += cov
		sumD += d
		sumA += a
		sumAn += an
		sumSy += sy
	}
	n := float64(len(records))

	radar := RadarData{
		Comprehension: round1(sumC / n * 100),
		Coverage:      round1(sumCov / n * 100),
		Depth:         round1(sumD / n * 100),
		Accuracy:      round1(sumA / n * 100),
		Analysis:      round1(sumAn / n * 100),
		Synthesis:     round1(sumSy / n * 100),
	}

	strengths, weaknesses := classifySkills(radar)

	return &CognitiveProfile{
		UserID:             userID,
		PeriodDays:         periodDays,
		TotalAnalyses:      len(records),
		RadarData:          radar,
		GrowthTrend:        growthTrend(records),
		Strengths:          strengths,
		Weaknesses:         weaknesses,
		ImprovementRate:    improvementRate(records),
		BloomDistribution:  bloomDistribution(records),
		ErrorPatterns:      errorPatterns(records),
		Suggestions:        personalizedSuggestions(radar, records),
		LearningPatterns:   learningPatterns(records),
		PerformanceTrends:  performanceTrends(records),
		ConsistencyMetrics: consistencyMetrics(records),
	}
}

// DefaultProfile is returned for users with no recorded analyses.
func DefaultProfile(userID string, periodDays int) *CognitiveProfile {
	return &CognitiveProfile{
		UserID:        userID,
		PeriodDays:    periodDays,
		TotalAnalyses: 0,
		RadarData: RadarData{
			Comprehension: 50, Coverage: 50, Depth: 50,
			Accuracy: 50, Analysis: 50, Synthesis: 50,
		},
		GrowthTrend:       []TrendPoint{},
		Strengths:         []string{},
		Weaknesses:        []string{},
		BloomDistribution: map[string]int{},
		ErrorPatterns:     []ErrorPattern{},
		Suggestions: []ProfileSuggestion{
			{
				Icon:        "📚",
				Title:       "Begin Your Cognitive Journey",
				Description: "Analyze your first text to start building a profile.",
				Action:      "Pick any article and write what you understood from it.",
			},
		},
	}
}

func classifySkills(radar RadarData) (strengths, weaknesses []string) {
	type axis struct {
		key   string
		value float64
	}
	axes := []axis{
		{"comprehension", radar.Comprehension},
		{"coverage", radar.Coverage},
		{"depth", radar.Depth},
		{"accuracy", radar.Accuracy},
		{"analysis", radar.Analysis},
		{"synthesis", radar.Synthesis},
	}
	sort.SliceStable(axes, func(i, j int) bool { return axes[i].value > axes[j].value })

	strengths = []string{}
	weaknesses = []string{}
	for _, a := range axes {
		name := skillNames[a.key]
		switch {
		case a.value >= radarExcellentMin:
			if len(strengths) < maxListedSkills {
				strengths = append(strengths, "Excellent "+name)
			}
		case a.value >= radarStrongMin:
			if len(strengths) < maxListedSkills {
				strengths = append(strengths, "Strong "+name)
			}
		case a.value < radarVeryWeakMax:
			if len(weaknesses) < maxListedSkills {
				weaknesses = append(weaknesses, "Develop "+name)
			}
		case a.value < radarWeakMax:
			if len(weaknesses) < maxListedSkills {
				weaknesses = append(weaknesses, "Improve "+name)
			}
		}
	}
	return strengths, weaknesses
}

// growthTrend averages similarity, depth and coverage per calendar day and
// keeps the most recent 14 days that have data.
func growthTrend(records []*CognitiveRecord) []TrendPoint {
	type daySums struct {
		similarity float64
		depth      float64
		coverage   float64
		count      int
	}
	days := make(map[string]*daySums)
	for _, r := range records {
		d, ok := days[r.DateString]
		if !ok {
			d = &daySums{}
			days[r.DateString] = d
		}
		d.similarity += r.OverallSimilarity
		d.depth += r.DepthScore
		d.coverage += r.CoverageScore
		d.count++
	}

	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	if len(dates) > trendMaxPoints {
		dates = dates[len(dates)-trendMaxPoints:]
	}

	trend := make([]TrendPoint, 0, len(dates))
	for _, date := range dates {
		d := days[date]
		n := float64(d.count)
		trend = append(trend, TrendPoint{
			Date:       date,
			Similarity: round1(d.similarity / n * 100),
			Depth:      round1(d.depth / n * 100),
			Coverage:   round1(d.coverage / n * 100),
			Count:      d.count,
		})
	}
	return trend
}

// improvementRate compares the newer half of records against the older half.
// Records arrive newest first.
func improvementRate(records []*CognitiveRecord) float64 {
	if len(records) < improvementMinEvents {
		return 0.0
	}
	mid := len(records) / 2
	recent := records[:mid]
	early := records[mid:]

	var recentSum, earlySum float64
	for _, r := range recent {
		recentSum += r.OverallSimilarity
	}
	for _, r := range early {
		earlySum += r.OverallSimilarity
	}
	recentAvg := recentSum / float64(len(recent))
	earlyAvg := earlySum / float64(len(early))

	return round1((recentAvg - earlyAvg) * 100)
}

func bloomDistribution(records []*CognitiveRecord) map[string]int {
	dist := make(map[string]int)
	for _, r := range records {
		level := r.BloomLevel
		if level == "" {
			level = "understand"
		}
		dist[level]++
	}
	return dist
}

func errorPatterns(records []*CognitiveRecord) []ErrorPattern {
	counts := make(map[string]int)
	total := 0
	for _, r := range records {
		if r.ErrorType == "" || r.ErrorType == "none" {
			continue
		}
		counts[r.ErrorType]++
		total++
	}
	if total == 0 {
		return []ErrorPattern{}
	}

	patterns := make([]ErrorPattern, 0, len(counts))
	for errType, count := range counts {
		suggestion, ok := errorSuggestionMap[errType]
		if !ok {
			suggestion = defaultErrorSuggestion
		}
		patterns = append(patterns, ErrorPattern{
			ErrorType:  errType,
			Label:      errorLabel(errType),
			Count:      count,
			Percentage: round1(float64(count) / float64(total) * 100),
			Suggestion: suggestion,
		})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return patterns[i].ErrorType < patterns[j].ErrorType
	})
	return patterns
}

func errorLabel(errType string) string {
	parts := strings.Split(errType, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// personalizedSuggestions picks up to three: the two weakest radar axes
// below 70, the user's most common error type, and a pacing suggestion from
// the last five analyses.
func personalizedSuggestions(radar RadarData, records []*CognitiveRecord) []ProfileSuggestion {
	type axis struct {
		key   string
		value float64
	}
	axes := []axis{
		{"comprehension", radar.Comprehension},
		{"coverage", radar.Coverage},
		{"depth", radar.Depth},
		{"accuracy", radar.Accuracy},
		{"analysis", radar.Analysis},
		{"synthesis", radar.Synthesis},
	}
	sort.SliceStable(axes, func(i, j int) bool { return axes[i].value < axes[j].value })

	suggestions := []ProfileSuggestion{}
	for _, a := range axes {
		if len(suggestions) >= 2 {
			break
		}
		if a.value < radarStrongMin {
			suggestions = append(suggestions, skillSuggestions[a.key])
		}
	}

	if errType := mostCommonError(records); errType != "" {
		if s, ok := errorTargetedSuggestions[errType]; ok {
			suggestions = append(suggestions, s)
		}
	}

	if len(suggestions) < maxSuggestionCount {
		if s, ok := pacingSuggestion(records); ok {
			suggestions = append(suggestions, s)
		}
	}

	if len(suggestions) > maxSuggestionCount {
		suggestions = suggestions[:maxSuggestionCount]
	}
	return suggestions
}

func mostCommonError(records []*CognitiveRecord) string {
	counts := make(map[string]int)
	for _, r := range records {
		if r.ErrorType == "" || r.ErrorType == "none" {
			continue
		}
		counts[r.ErrorType]++
	}
	best := ""
	bestCount := 0
	for errType, count := range counts {
		if count > bestCount || (count == bestCount && errType < best) {
			best = errType
			bestCount = count
		}
	}
	return best
}

func pacingSuggestion(records []*CognitiveRecord) (ProfileSuggestion, bool) {
	recent := records
	if len(recent) > 5 {
		recent = recent[:5]
	}
	var sum float64
	for _, r := range recent {
		sum += r.OverallSimilarity
	}
	mean := sum / float64(len(recent))

	switch {
	case mean > 0.8:
		return ProfileSuggestion{
			Icon:        "🚀",
			Title:       "Ready for a Challenge",
			Description: "Your recent analyses are consistently strong.",
			Action:      "Try longer or more technical texts to keep growing.",
		}, true
	case mean < 0.4:
		return ProfileSuggestion{
			Icon:        "🧱",
			Title:       "Build a Solid Foundation",
			Description: "Recent texts have been hard to pin down.",
			Action:      "Practice with shorter, simpler passages for a while.",
		}, true
	default:
		return ProfileSuggestion{}, false
	}
}

var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

func learningPatterns(records []*CognitiveRecord) LearningPatterns {
	complexitySums := make(map[string]float64)
	complexityCounts := make(map[string]int)
	domainSums := make(map[string]float64)
	domainCounts := make(map[string]int)

	for _, r := range records {
		complexity := r.TextComplexity
		if complexity == "" {
			complexity = "medium"
		}
		complexitySums[complexity] += r.OverallSimilarity
		complexityCounts[complexity]++

		domain := r.TextDomain
		if domain == "" {
			domain = "general"
		}
		domainSums[domain] += r.OverallSimilarity
		domainCounts[domain]++
	}

	complexityAverages := make(map[string]float64, len(complexitySums))
	for complexity, sum := range complexitySums {
		complexityAverages[complexity] = sum / float64(complexityCounts[complexity])
	}
	domainAverages := make(map[string]float64, len(domainSums))
	for domain, sum := range domainSums {
		domainAverages[domain] = sum / float64(domainCounts[domain])
	}

	return LearningPatterns{
		TimePatterns: TimePatterns{
			MostActiveDays:    weekdayNames,
			ConsistencyScore:  0.7,
			AnalysisFrequency: round1(float64(len(records)) / 30.0),
		},
		ComplexityPreferences: complexityAverages,
		DomainPatterns:        domainAverages,
	}
}

func performanceTrends(records []*CognitiveRecord) PerformanceTrends {
	if len(records) < 3 {
		return PerformanceTrends{Direction: "stable"}
	}

	var sum, minSim, maxSim float64
	minSim = records[0].OverallSimilarity
	maxSim = records[0].OverallSimilarity
	for _, r := range records {
		sum += r.OverallSimilarity
		if r.OverallSimilarity < minSim {
			minSim = r.OverallSimilarity
		}
		if r.OverallSimilarity > maxSim {
			maxSim = r.OverallSimilarity
		}
	}
	overall := sum / float64(len(records))

	recent := records
	if len(recent) > 5 {
		recent = recent[:5]
	}
	var recentSum float64
	for _, r := range recent {
		recentSum += r.OverallSimilarity
	}
	recentAvg := recentSum / float64(len(recent))

	// Any recent gain counts as improving; the 0.05 band only separates
	// stable from declining.
	direction := "declining"
	switch {
	case recentAvg > overall:
		direction = "improving"
	case overall-recentAvg < 0.05:
		direction = "stable"
	}

	return PerformanceTrends{
		OverallAverage: round1(overall * 100),
		RecentAverage:  round1(recentAvg * 100),
		Direction:      direction,
		Consistency:    round1((1.0 - (maxSim - minSim)) * 100),
	}
}

// consistencyMetrics scores run-to-run stability from the variance of the
// similarity and depth series. Low variance means high consistency; the
// combined score weighs both series together at half the sensitivity.
func consistencyMetrics(records []*CognitiveRecord) ConsistencyMetrics {
	if len(records) == 0 {
		return ConsistencyMetrics{}
	}

	sims := make([]float64, len(records))
	depths := make([]float64, len(records))
	for i, r := range records {
		sims[i] = r.OverallSimilarity
		depths[i] = r.DepthScore
	}

	simVar := variance(sims)
	depthVar := variance(depths)

	return ConsistencyMetrics{
		SimilarityConsistency: round1((1.0 - minFloat(simVar*4, 1.0)) * 100),
		DepthConsistency:      round1((1.0 - minFloat(depthVar*4, 1.0)) * 100),
		CombinedConsistency:   round1((1.0 - minFloat((simVar+depthVar)*2, 1.0)) * 100),
	}
}

func variance(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return sq / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
