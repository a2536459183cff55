package analysis

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/cache/redis"
	"github.com/word-munch/backend/pkg/logger"
	"github.com/word-munch/backend/pkg/textutil"
)

type SegmentKind string

const (
	KindPhrase   SegmentKind = "phrase"
	KindSentence SegmentKind = "sentence"
)

// Segment is a contiguous unit of the original text with byte offsets into
// the source. Segments are produced left to right with non-decreasing
// offsets.
type Segment struct {
	Text  string      `json:"text"`
	Start int         `json:"start"`
	End   int         `json:"end"`
	Kind  SegmentKind `json:"type"`
	Level string      `json:"level"`
}

const primaryLevel = "primary"

// singleSentenceMaxWords is the token ceiling below which a text with at
// most one terminator is treated as a single sentence and phrase-segmented.
const singleSentenceMaxWords = 20

var phraseSeparator = regexp.MustCompile(
	`[,;:]` +
		`|\s+(?:and|but|or|however|therefore|moreover|furthermore|additionally|consequently)\s+` +
		`|\s+(?:in|on|at|by|for|with|through|during|after|before|since|until)\s+` +
		`|\s+(?:such as|for example|including|like)\s+`,
)

// SegmentCache stores segmentation results keyed by content hash.
type SegmentCache interface {
	GetJSON(ctx context.Context, tier redis.Tier, contentHash string, out interface{}) (bool, error)
	SetJSON(ctx context.Context, tier redis.Tier, contentHash string, value interface{}) error
}

// Segmenter wraps the pure segmentation rules with a 30-day cache. The cache
// is an optimization only; results are a pure function of the text.
type Segmenter struct {
	cache SegmentCache
}

func NewSegmenter(cache SegmentCache) *Segmenter {
	return &Segmenter{cache: cache}
}

func (s *Segmenter) Segment(ctx context.Context, text string) []Segment {
	if s.cache == nil {
		return SegmentText(text)
	}

	hash := textutil.HashString(text)

	var cached []Segment
	found, err := s.cache.GetJSON(ctx, redis.TierSegments, hash, &cached)
	if err != nil {
		logger.Warn("Segment cache read failed", zap.Error(err))
	}
	if found && len(cached) > 0 {
		return cached
	}

	segments := SegmentText(text)

	if len(segments) > 0 {
		if err := s.cache.SetJSON(ctx, redis.TierSegments, hash, segments); err != nil {
			logger.Warn("Segment cache write failed", zap.Error(err))
		}
	}

	return segments
}

// SegmentText splits a text into ordered primary units: phrases for a single
// sentence, sentences otherwise. Deterministic and side-effect free.
func SegmentText(text string) []Segment {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if isSingleSentence(text) {
		return phraseSegments(text)
	}
	return sentenceSegments(text)
}

// isSingleSentence holds when the text has at most one decimal-safe
// terminator and at most 20 tokens, or no terminator at all.
func isSingleSentence(text string) bool {
	endings := countSentenceTerminators(text)
	words := textutil.WordCount(text)

	if endings <= 1 && words <= singleSentenceMaxWords {
		return true
	}
	return endings == 0
}

func isTerminatorRune(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// countSentenceTerminators counts sentence-ending punctuation, skipping
// periods that sit between two digits (decimal points).
func countSentenceTerminators(text string) int {
	runes := []rune(text)
	count := 0
	for i, r := range runes {
		if !isTerminatorRune(r) {
			continue
		}
		if r == '.' && i > 0 && i < len(runes)-1 && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
			continue
		}
		count++
	}
	return count
}

func phraseSegments(text string) []Segment {
	parts := phraseSeparator.Split(text, -1)

	segments := make([]Segment, 0, len(parts))
	cursor := 0
	for _, part := range parts {
		phrase := strings.TrimSpace(part)
		if phrase == "" {
			continue
		}
		seg, next := locate(text, phrase, cursor, KindPhrase)
		segments = append(segments, seg)
		cursor = next
	}

	if len(segments) < 2 {
		return fallbackPhraseSegments(text)
	}

	logger.Debug("Phrase segmentation complete", zap.Int("phrases", len(segments)))
	return segments
}

// fallbackPhraseSegments bisects by word count when the separator rules
// produce fewer than two phrases.
func fallbackPhraseSegments(text string) []Segment {
	words := strings.Fields(text)
	if len(words) <= 3 {
		return []Segment{{
			Text:  text,
			Start: 0,
			End:   len(text),
			Kind:  KindPhrase,
			Level: primaryLevel,
		}}
	}

	wordsPerPhrase := len(words) / 2
	if wordsPerPhrase < 3 {
		wordsPerPhrase = 3
	}

	segments := make([]Segment, 0, 3)
	cursor := 0
	for i := 0; i < len(words); i += wordsPerPhrase {
		end := i + wordsPerPhrase
		if end > len(words) {
			end = len(words)
		}
		phrase := strings.Join(words[i:end], " ")
		seg, next := locate(text, phrase, cursor, KindPhrase)
		segments = append(segments, seg)
		cursor = next
	}

	return segments
}

func sentenceSegments(text string) []Segment {
	parts := splitSentences(text)

	segments := make([]Segment, 0, len(parts))
	cursor := 0
	for _, part := range parts {
		sentence := strings.TrimSpace(part)
		if sentence == "" {
			continue
		}
		seg, next := locate(text, sentence, cursor, KindSentence)
		segments = append(segments, seg)
		cursor = next
	}

	logger.Debug("Sentence segmentation complete", zap.Int("sentences", len(segments)))
	return segments
}

// splitSentences cuts at terminator runes, keeping decimal points intact.
// Terminators are split points only; they are not retained in the parts.
func splitSentences(text string) []string {
	runes := []rune(text)
	parts := make([]string, 0, 4)
	start := 0
	for i, r := range runes {
		if !isTerminatorRune(r) {
			continue
		}
		if r == '.' && i > 0 && i < len(runes)-1 && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
			continue
		}
		parts = append(parts, string(runes[start:i]))
		start = i + 1
	}
	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}
	return parts
}

// locate assigns offsets by finding the unit at or after the scan cursor,
// falling back to the cursor itself so offsets stay monotonic on
// pathological input.
func locate(text, unit string, cursor int, kind SegmentKind) (Segment, int) {
	start := cursor
	if cursor <= len(text) {
		if idx := strings.Index(text[cursor:], unit); idx >= 0 {
			start = cursor + idx
		}
	}
	end := start + len(unit)
	if end > len(text) {
		end = len(text)
	}
	return Segment{
		Text:  unit,
		Start: start,
		End:   end,
		Kind:  kind,
		Level: primaryLevel,
	}, end
}
