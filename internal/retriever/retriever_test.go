package retriever

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vedabase-notes/internal/models"
)

// Mirror of the rule checker's citation pattern, used to prove that
// labels we emit are labels it accepts.
var citationRe = regexp.MustCompile(`(?i)\[NOI\s+\w+\s+\w+\]|\[NOI\s+Preface\]`)

func sampleHits() []models.RetrievalHit {
	return []models.RetrievalHit{
		{
			Text:        "Translation: A sober person who can tolerate the urge to speak.",
			ChunkID:     "NOI-1-translation",
			VerseNumber: "1",
			Section:     models.SectionTranslation,
			SourceURI:   "https://vedabase.io/en/library/noi/1/",
			Distance:    0.2,
		},
		{
			Text:        "The Kṛṣṇa consciousness movement is conducted under supervision.",
			ChunkID:     "NOI-preface-preface-1",
			VerseNumber: models.VersePreface,
			Section:     models.SectionPreface,
			SourceURI:   "https://vedabase.io/en/library/noi/preface/",
			Distance:    0.4,
		},
	}
}

func TestFormatContext(t *testing.T) {
	t.Run("Renders labeled blocks with separator", func(t *testing.T) {
		got := FormatContext(sampleHits(), 600)

		blocks := strings.Split(got, models.ContextSeparator)
		require.Len(t, blocks, 2)
		assert.True(t, strings.HasPrefix(blocks[0], "[NOI 1 - translation]\nSource: https://vedabase.io/en/library/noi/1/\n"))
		assert.True(t, strings.HasPrefix(blocks[1], "[NOI Preface - preface]\n"))
		assert.Contains(t, blocks[0], "A sober person")
	})

	t.Run("Empty hit list yields empty string", func(t *testing.T) {
		assert.Equal(t, "", FormatContext(nil, 600))
		assert.Equal(t, "", FormatContext([]models.RetrievalHit{}, 600))
	})

	t.Run("Long text is truncated with ellipsis", func(t *testing.T) {
		hits := sampleHits()[:1]
		hits[0].Text = strings.Repeat("ā", 700)

		got := FormatContext(hits, 600)

		assert.True(t, strings.HasSuffix(got, "..."))
		body := got[strings.LastIndex(got, "\n")+1:]
		assert.Len(t, []rune(body), 603)
	})

	t.Run("Text at the limit is untouched", func(t *testing.T) {
		hits := sampleHits()[:1]
		hits[0].Text = strings.Repeat("x", 600)

		got := FormatContext(hits, 600)

		assert.False(t, strings.HasSuffix(got, "..."))
	})
}

func TestCitationLabel(t *testing.T) {
	t.Run("Verse hit", func(t *testing.T) {
		label := CitationLabel(sampleHits()[0])
		assert.Equal(t, "[NOI 1 Translation]", label)
	})

	t.Run("Preface hit", func(t *testing.T) {
		label := CitationLabel(sampleHits()[1])
		assert.Equal(t, "[NOI Preface Preface]", label)
	})

	t.Run("Labels match the rule checker pattern", func(t *testing.T) {
		for _, hit := range sampleHits() {
			label := CitationLabel(hit)
			assert.True(t, citationRe.MatchString(label), "label %q not matched", label)
		}
	})
}

func TestRelevance(t *testing.T) {
	assert.InDelta(t, 0.8, sampleHits()[0].Relevance(), 1e-6)
	assert.Zero(t, models.RetrievalHit{Distance: 1.5}.Relevance())
	assert.EqualValues(t, 1, models.RetrievalHit{Distance: -0.1}.Relevance())
}
