package words

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	response string
	err      error
	calls    int
}

func (s *stubModel) GenerateSynonyms(ctx context.Context, word, wordContext, language string) (string, error) {
	s.calls++
	return s.response, s.err
}

type memoryCache struct {
	entries map[string][]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]string)}
}

func (m *memoryCache) GetSynonyms(ctx context.Context, wordKey string) ([]string, bool, error) {
	synonyms, ok := m.entries[wordKey]
	return synonyms, ok, nil
}

func (m *memoryCache) SetSynonyms(ctx context.Context, wordKey string, synonyms []string) error {
	m.entries[wordKey] = synonyms
	return nil
}

func TestParseSynonyms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "strict json array",
			raw:  `["hard", "tough", "tricky"]`,
			want: []string{"hard", "tough", "tricky"},
		},
		{
			name: "array wrapped in prose",
			raw:  "Here are simpler words: [\"hard\", \"tough\"] hope that helps.",
			want: []string{"hard", "tough"},
		},
		{
			name: "comma separated fallback",
			raw:  "hard, tough, tricky",
			want: []string{"hard", "tough", "tricky"},
		},
		{
			name: "cjk delimiters",
			raw:  "困难，艰难、不易",
			want: []string{"困难", "艰难", "不易"},
		},
		{
			name: "dedup is case insensitive",
			raw:  "Hard, hard, HARD, tough",
			want: []string{"Hard", "tough"},
		},
		{
			name: "capped at five",
			raw:  "a, b, c, d, e, f, g",
			want: []string{"a", "b", "c", "d", "e"},
		},
		{
			name: "stray quotes and brackets trimmed",
			raw:  `"hard" 'tough' ]tricky[`,
			want: []string{"hard", "tough", "tricky"},
		},
		{
			name: "empty response",
			raw:  "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSynonyms(tt.raw)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSimplify(t *testing.T) {
	model := &stubModel{response: `["hard", "tough"]`}
	muncher := NewMuncher(model, nil)

	result, err := muncher.Simplify(context.Background(), " Difficult ", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Difficult", result.Word)
	assert.Equal(t, []string{"hard", "tough"}, result.Synonyms)
	assert.Equal(t, "english", result.Language, "language defaults when unset")
	assert.False(t, result.Cached)
}

func TestSimplify_CacheRoundTrip(t *testing.T) {
	model := &stubModel{response: `["hard"]`}
	cache := newMemoryCache()
	muncher := NewMuncher(model, cache)

	first, err := muncher.Simplify(context.Background(), "difficult", "", "english")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// Same word with different casing hits the cache, not the model.
	second, err := muncher.Simplify(context.Background(), "DIFFICULT", "", "english")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Synonyms, second.Synonyms)
	assert.Equal(t, 1, model.calls)
}

func TestSimplify_Errors(t *testing.T) {
	muncher := NewMuncher(&stubModel{response: "[]"}, nil)

	_, err := muncher.Simplify(context.Background(), "", "", "")
	assert.Error(t, err)

	_, err = muncher.Simplify(context.Background(), "difficult", "", "")
	assert.Error(t, err, "empty synonym list is an error")

	failing := NewMuncher(&stubModel{err: errors.New("model down")}, nil)
	_, err = failing.Simplify(context.Background(), "difficult", "", "")
	assert.Error(t, err)
}
