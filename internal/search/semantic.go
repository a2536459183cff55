package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/analysis"
	"github.com/word-munch/backend/internal/metrics"
	"github.com/word-munch/backend/pkg/logger"
)

// BatchEmbedder embeds the query and all candidate chunks in as few model
// calls as possible.
type BatchEmbedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error)
}

// Engine ranks caller-supplied text chunks against a query. Chunks are
// transient; nothing is persisted between requests.
type Engine struct {
	embedder  BatchEmbedder
	topK      int
	threshold float64
	maxChunks int
}

func NewEngine(embedder BatchEmbedder, topK int, threshold float64, maxChunks int) *Engine {
	if topK <= 0 {
		topK = 5
	}
	if maxChunks <= 0 {
		maxChunks = 200
	}
	return &Engine{
		embedder:  embedder,
		topK:      topK,
		threshold: threshold,
		maxChunks: maxChunks,
	}
}

// Match is one ranked chunk. Index refers to the caller's chunk order.
type Match struct {
	Index      int     `json:"index"`
	Chunk      string  `json:"chunk"`
	Similarity float64 `json:"similarity"`
	Length     int     `json:"length"`
}

// Search embeds the query and chunks, ranks by cosine similarity, filters by
// threshold, and returns the top matches. Zero overrides use the engine
// defaults.
func (e *Engine) Search(ctx context.Context, query string, chunks []string, topK int, threshold float64) ([]Match, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("at least one chunk is required")
	}
	if len(chunks) > e.maxChunks {
		return nil, fmt.Errorf("too many chunks: %d exceeds limit of %d", len(chunks), e.maxChunks)
	}

	if topK <= 0 {
		topK = e.topK
	}
	if threshold <= 0 {
		threshold = e.threshold
	}

	queryEmbedding, err := e.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	chunkEmbeddings, err := e.embedder.GenerateBatchEmbeddings(ctx, chunks)
	if err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}

	matches := make([]Match, 0, len(chunks))
	for i, embedding := range chunkEmbeddings {
		similarity := analysis.CosineSimilarity(queryEmbedding, embedding)
		if similarity < threshold {
			continue
		}
		matches = append(matches, Match{
			Index:      i,
			Chunk:      chunks[i],
			Similarity: similarity,
			Length:     len(chunks[i]),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	metrics.SearchRequests.WithLabelValues("success").Inc()
	logger.Debug("Semantic search completed",
		zap.Int("chunks", len(chunks)),
		zap.Int("matches", len(matches)),
	)

	return matches, nil
}
