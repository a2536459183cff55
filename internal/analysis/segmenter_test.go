package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentText_Empty(t *testing.T) {
	assert.Nil(t, SegmentText(""))
	assert.Nil(t, SegmentText("   \n\t  "))
}

func TestSegmentText_DecimalsDoNotSplit(t *testing.T) {
	text := "The value is 3.14 and 2.5 is close."
	segments := SegmentText(text)

	require.NotEmpty(t, segments)
	for _, seg := range segments {
		assert.Equal(t, KindPhrase, seg.Kind, "short text with decimals should be phrase-segmented, got %q", seg.Text)
		assert.NotContains(t, seg.Text, "3.14 and", "split should happen at the conjunction")
	}

	// The conjunction separates value statements into two phrases.
	require.Len(t, segments, 2)
	assert.Equal(t, "The value is 3.14", segments[0].Text)
	assert.Equal(t, "2.5 is close.", segments[1].Text)
}

func TestSegmentText_MultiSentence(t *testing.T) {
	text := "First sentence covers the basics here today. Second sentence follows with more detail! Does the third one ask a question?"
	segments := SegmentText(text)

	require.Len(t, segments, 3)
	for _, seg := range segments {
		assert.Equal(t, KindSentence, seg.Kind)
		assert.Equal(t, "primary", seg.Level)
	}
	assert.Equal(t, "First sentence covers the basics here today", segments[0].Text)
}

func TestSegmentText_OffsetsMatchSource(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"phrases", "Revenue grew quickly, but costs rose faster"},
		{"sentences", "Growth was strong in spring quarter overall. Costs however kept rising every month after. Margins suffered badly as a result of it."},
		{"decimals", "Inflation hit 3.2 percent. Unemployment stayed near 4.1 percent. Wages grew slowly all year."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := SegmentText(tt.text)
			require.NotEmpty(t, segments)

			prevEnd := 0
			for _, seg := range segments {
				assert.GreaterOrEqual(t, seg.Start, prevEnd, "offsets must be non-decreasing")
				assert.LessOrEqual(t, seg.End, len(tt.text))
				assert.Equal(t, tt.text[seg.Start:seg.End], seg.Text)
				prevEnd = seg.End
			}
		})
	}
}

func TestSegmentText_Deterministic(t *testing.T) {
	text := "Photosynthesis converts light into chemical energy. Plants store that energy as glucose molecules. Oxygen is released as a byproduct."
	first := SegmentText(text)
	second := SegmentText(text)
	assert.Equal(t, first, second)
}

func TestSegmentText_ShortTextSingleSegment(t *testing.T) {
	segments := SegmentText("Hello there")
	require.Len(t, segments, 1)
	assert.Equal(t, "Hello there", segments[0].Text)
	assert.Equal(t, 0, segments[0].Start)
	assert.Equal(t, len("Hello there"), segments[0].End)
}

func TestSegmentText_FallbackBisection(t *testing.T) {
	// No separators and more than three words forces word-block fallback.
	text := "quantum entanglement defies classical physical intuition completely"
	segments := SegmentText(text)

	require.GreaterOrEqual(t, len(segments), 2)
	for _, seg := range segments {
		assert.Equal(t, KindPhrase, seg.Kind)
	}
}

func TestCountSentenceTerminators(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"plain sentences", "One. Two. Three.", 3},
		{"decimal preserved", "Pi is 3.14 here.", 1},
		{"mixed punctuation", "Really? Yes! Done.", 3},
		{"cjk terminators", "第一句。第二句！", 2},
		{"trailing decimal period", "The rate was 2.5.", 1},
		{"no terminators", "no ending here", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countSentenceTerminators(tt.text))
		})
	}
}

func TestIsSingleSentence(t *testing.T) {
	longSingle := "This extremely long sentence keeps going on and on with many words that exceed the usual phrase segmentation word ceiling entirely"
	assert.True(t, isSingleSentence(longSingle), "zero terminators always means single sentence")

	assert.True(t, isSingleSentence("Short claim with one ending."))
	assert.False(t, isSingleSentence("First part ends here. Second part also ends here. And a third for good measure appears."))
}

func TestSegmenter_NoCacheDelegates(t *testing.T) {
	s := NewSegmenter(nil)
	segments := s.Segment(context.Background(), "Plain text without any cache behind it, checked for phrase output")
	assert.NotEmpty(t, segments)
}
