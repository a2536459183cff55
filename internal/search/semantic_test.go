package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vectorEmbedder returns fixed vectors: one for the query and one per chunk.
type vectorEmbedder struct {
	query    []float64
	chunks   [][]float64
	queryErr error
	batchErr error
}

func (v *vectorEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	return v.query, v.queryErr
}

func (v *vectorEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	return v.chunks, v.batchErr
}

func TestSearch_RanksByMostSimilar(t *testing.T) {
	embedder := &vectorEmbedder{
		query: []float64{1, 0},
		chunks: [][]float64{
			{0, 1},      // orthogonal, similarity 0
			{1, 0},      // identical, similarity 1
			{1, 1},      // similarity ~0.707
			{0.9, 0.05}, // near match
		},
	}
	engine := NewEngine(embedder, 5, 0.5, 200)

	matches, err := engine.Search(context.Background(), "gravity", []string{"a", "b", "c", "d"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, matches, 3, "orthogonal chunk falls below threshold")

	assert.Equal(t, 1, matches[0].Index)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
	assert.Equal(t, "b", matches[0].Chunk)
	assert.Equal(t, 3, matches[1].Index)
	assert.Equal(t, 2, matches[2].Index)
}

func TestSearch_TopKLimitsResults(t *testing.T) {
	embedder := &vectorEmbedder{
		query: []float64{1, 0},
		chunks: [][]float64{
			{1, 0}, {1, 0}, {1, 0}, {1, 0},
		},
	}
	engine := NewEngine(embedder, 5, 0.5, 200)

	matches, err := engine.Search(context.Background(), "q", []string{"a", "b", "c", "d"}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestSearch_ThresholdOverride(t *testing.T) {
	embedder := &vectorEmbedder{
		query: []float64{1, 0},
		chunks: [][]float64{
			{1, 0}, {1, 1},
		},
	}
	engine := NewEngine(embedder, 5, 0.5, 200)

	matches, err := engine.Search(context.Background(), "q", []string{"a", "b"}, 0, 0.9)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Index)
}

func TestSearch_InputValidation(t *testing.T) {
	engine := NewEngine(&vectorEmbedder{}, 5, 0.5, 2)

	_, err := engine.Search(context.Background(), "", []string{"a"}, 0, 0)
	assert.Error(t, err)

	_, err = engine.Search(context.Background(), "q", nil, 0, 0)
	assert.Error(t, err)

	_, err = engine.Search(context.Background(), "q", []string{"a", "b", "c"}, 0, 0)
	assert.Error(t, err, "chunk count over the limit is rejected")
}

func TestSearch_EmbedderFailures(t *testing.T) {
	engine := NewEngine(&vectorEmbedder{queryErr: errors.New("boom")}, 5, 0.5, 200)
	_, err := engine.Search(context.Background(), "q", []string{"a"}, 0, 0)
	assert.Error(t, err)

	engine = NewEngine(&vectorEmbedder{query: []float64{1}, batchErr: errors.New("boom")}, 5, 0.5, 200)
	_, err = engine.Search(context.Background(), "q", []string{"a"}, 0, 0)
	assert.Error(t, err)
}

func TestNewEngine_Defaults(t *testing.T) {
	engine := NewEngine(&vectorEmbedder{}, 0, 0, 0)
	assert.Equal(t, 5, engine.topK)
	assert.Equal(t, 200, engine.maxChunks)
}
