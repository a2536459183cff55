package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "word_munch_analysis_duration_seconds",
			Help:    "Comprehension analysis duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"escalated"},
	)

	AnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "word_munch_analysis_total",
			Help: "Total comprehension analyses processed",
		},
		[]string{"status"},
	)

	OverallSimilarity = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "word_munch_overall_similarity",
			Help:    "Overall similarity scores across analyses",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	SegmentsPerAnalysis = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "word_munch_segments_per_analysis",
			Help:    "Number of segments produced per analysis",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)

	EscalationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "word_munch_escalations_total",
			Help: "Total analyses escalated to detailed feedback",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "word_munch_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "word_munch_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	EmbeddingsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "word_munch_embeddings_generated_total",
			Help: "Total embeddings generated by the model",
		},
		[]string{"kind"},
	)

	CognitiveRecordsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "word_munch_cognitive_records_written_total",
			Help: "Total cognitive records persisted",
		},
	)

	CognitiveRecordsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "word_munch_cognitive_records_dropped_total",
			Help: "Total cognitive records dropped due to a full queue",
		},
	)

	ProfileBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "word_munch_profile_build_duration_seconds",
			Help:    "Profile aggregation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	SynonymRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "word_munch_synonym_requests_total",
			Help: "Total word simplification requests",
		},
		[]string{"source"},
	)

	SearchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "word_munch_search_requests_total",
			Help: "Total semantic search requests",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(AnalysisTotal)
	prometheus.MustRegister(OverallSimilarity)
	prometheus.MustRegister(SegmentsPerAnalysis)
	prometheus.MustRegister(EscalationsTotal)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(EmbeddingsGenerated)
	prometheus.MustRegister(CognitiveRecordsWritten)
	prometheus.MustRegister(CognitiveRecordsDropped)
	prometheus.MustRegister(ProfileBuildDuration)
	prometheus.MustRegister(SynonymRequests)
	prometheus.MustRegister(SearchRequests)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
