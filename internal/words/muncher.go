package words

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/metrics"
	"github.com/word-munch/backend/pkg/logger"
	"github.com/word-munch/backend/pkg/textutil"
)

const maxSynonyms = 5

// SynonymModel produces a raw model response for a word simplification
// request. The response is parsed leniently; see ParseSynonyms.
type SynonymModel interface {
	GenerateSynonyms(ctx context.Context, word, wordContext, language string) (string, error)
}

// SynonymCache keys synonyms by normalized word and language.
type SynonymCache interface {
	GetSynonyms(ctx context.Context, wordKey string) ([]string, bool, error)
	SetSynonyms(ctx context.Context, wordKey string, synonyms []string) error
}

// Muncher serves progressively simpler synonyms for a word.
type Muncher struct {
	model SynonymModel
	cache SynonymCache
}

func NewMuncher(model SynonymModel, cache SynonymCache) *Muncher {
	return &Muncher{model: model, cache: cache}
}

// Result carries the synonym list plus where it came from.
type Result struct {
	Word     string   `json:"word"`
	Synonyms []string `json:"synonyms"`
	Language string   `json:"language"`
	Cached   bool     `json:"cached"`
}

func cacheKey(word, language string) string {
	return textutil.HashString(strings.ToLower(word) + ":" + language)
}

// Simplify returns up to five synonyms ordered simplest-last, consulting the
// cache before the model.
func (m *Muncher) Simplify(ctx context.Context, word, wordContext, language string) (*Result, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("word is required")
	}
	if language == "" {
		language = "english"
	}

	key := cacheKey(word, language)

	if m.cache != nil {
		synonyms, found, err := m.cache.GetSynonyms(ctx, key)
		if err != nil {
			logger.Warn("Synonym cache read failed", zap.String("word", word), zap.Error(err))
		}
		if found {
			metrics.SynonymRequests.WithLabelValues("cache").Inc()
			return &Result{Word: word, Synonyms: synonyms, Language: language, Cached: true}, nil
		}
	}

	raw, err := m.model.GenerateSynonyms(ctx, word, wordContext, language)
	if err != nil {
		return nil, fmt.Errorf("failed to generate synonyms: %w", err)
	}

	synonyms := ParseSynonyms(raw)
	if len(synonyms) == 0 {
		return nil, fmt.Errorf("no synonyms produced for %q", word)
	}
	metrics.SynonymRequests.WithLabelValues("model").Inc()

	if m.cache != nil {
		if err := m.cache.SetSynonyms(ctx, key, synonyms); err != nil {
			logger.Warn("Synonym cache write failed", zap.String("word", word), zap.Error(err))
		}
	}

	return &Result{Word: word, Synonyms: synonyms, Language: language, Cached: false}, nil
}

var (
	bracketPattern   = regexp.MustCompile(`(?s)\[.*?\]`)
	delimiterPattern = regexp.MustCompile(`[,，、\s]+`)
)

// ParseSynonyms recovers a synonym list from a raw model response. Tries a
// strict JSON array first, then the first bracketed region, then falls back
// to splitting the whole response on common delimiters.
func ParseSynonyms(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return cleanSynonyms(parsed)
	}

	if region := bracketPattern.FindString(raw); region != "" {
		if err := json.Unmarshal([]byte(region), &parsed); err == nil {
			return cleanSynonyms(parsed)
		}
	}

	return cleanSynonyms(delimiterPattern.Split(raw, -1))
}

func cleanSynonyms(candidates []string) []string {
	synonyms := make([]string, 0, maxSynonyms)
	seen := make(map[string]bool)
	for _, c := range candidates {
		c = strings.Trim(strings.TrimSpace(c), `"'[]`)
		if c == "" {
			continue
		}
		lower := strings.ToLower(c)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		synonyms = append(synonyms, c)
		if len(synonyms) == maxSynonyms {
			break
		}
	}
	return synonyms
}
