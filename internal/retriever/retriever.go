package retriever

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"vedabase-notes/internal/chromemdb"
	"vedabase-notes/internal/embedding"
	"vedabase-notes/internal/models"
)

// Retriever finds the most relevant chunks for a topic. It embeds
// queries with the same Embedder used at index time; that consistency
// is load-bearing for relevance.
type Retriever struct {
	store    *chromemdb.Store
	embedder embedding.Embedder
}

func New(store *chromemdb.Store, embedder embedding.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve returns the topK most relevant chunks for the query, most
// relevant first.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalHit, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return r.store.Query(ctx, queryVector, topK, nil)
}

// FormatContext renders hits as labeled blocks for the LLM prompt:
//
//	[NOI 1 - translation]
//	Source: https://vedabase.io/en/library/noi/1/
//	A sober person who can tolerate...
//
// Text over maxCharsPerChunk is truncated with an ellipsis marker.
// An empty hit list yields the empty string.
func FormatContext(hits []models.RetrievalHit, maxCharsPerChunk int) string {
	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		label := "NOI Preface"
		if hit.VerseNumber != models.VersePreface {
			label = strings.ToUpper("NOI " + hit.VerseNumber)
		}

		text := hit.Text
		runes := []rune(text)
		if len(runes) > maxCharsPerChunk {
			text = string(runes[:maxCharsPerChunk]) + "..."
		}

		parts = append(parts, fmt.Sprintf("[%s - %s]\nSource: %s\n%s", label, hit.Section, hit.SourceURI, text))
	}
	return strings.Join(parts, models.ContextSeparator)
}

// CitationLabel is the canonical short citation for a hit, e.g.
// "[NOI 3 Purport]" or "[NOI Preface Preface]". The rule checker's
// citation regex depends on this exact shape.
func CitationLabel(hit models.RetrievalHit) string {
	return fmt.Sprintf("[NOI %s %s]", capitalize(hit.VerseNumber), capitalize(hit.Section))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
