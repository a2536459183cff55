package reading

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/word-munch/backend/pkg/logger"
)

const maxExtractedChars = 50000

var whitespacePattern = regexp.MustCompile(`\s+`)

// Extraction is what a page boils down to once chrome is stripped away.
type Extraction struct {
	Title         string  `json:"title"`
	Text          string  `json:"text"`
	WordCount     int     `json:"word_count"`
	SentenceCount int     `json:"sentence_count"`
	AvgWordLength float64 `json:"avg_word_length"`
}

// ExtractFromHTML pulls readable article text out of raw page HTML and
// annotates it with token and sentence statistics.
func ExtractFromHTML(html string) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, header, aside, form, iframe").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	// Prefer semantic article containers; fall back to the whole body.
	text := strings.TrimSpace(doc.Find("article").Text())
	if text == "" {
		text = strings.TrimSpace(doc.Find("main").Text())
	}
	if text == "" {
		text = strings.TrimSpace(doc.Find("body").Text())
	}

	text = whitespacePattern.ReplaceAllString(text, " ")
	if text == "" {
		return nil, fmt.Errorf("no content extracted from HTML")
	}
	if len(text) > maxExtractedChars {
		text = text[:maxExtractedChars]
	}

	extraction := &Extraction{Title: title, Text: text}
	if err := extraction.annotate(); err != nil {
		logger.Warn("Text annotation failed", zap.Error(err))
	}

	logger.Debug("HTML content extracted",
		zap.String("title", title),
		zap.Int("chars", len(text)),
	)

	return extraction, nil
}

// AnnotateText computes the same statistics for plain text supplied directly.
func AnnotateText(text string) (*Extraction, error) {
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if len(text) > maxExtractedChars {
		text = text[:maxExtractedChars]
	}

	extraction := &Extraction{Text: text}
	if err := extraction.annotate(); err != nil {
		return nil, err
	}
	return extraction, nil
}

func (e *Extraction) annotate() error {
	doc, err := prose.NewDocument(e.Text,
		prose.WithExtraction(false),
		prose.WithTagging(false),
	)
	if err != nil {
		return fmt.Errorf("failed to tokenize text: %w", err)
	}

	tokens := doc.Tokens()
	totalLen := 0
	words := 0
	for _, tok := range tokens {
		trimmed := strings.Trim(tok.Text, ".,!?;:\"'")
		if trimmed == "" {
			continue
		}
		words++
		totalLen += len(trimmed)
	}

	e.WordCount = words
	e.SentenceCount = len(doc.Sentences())
	if words > 0 {
		e.AvgWordLength = float64(totalLen) / float64(words)
	}
	return nil
}
