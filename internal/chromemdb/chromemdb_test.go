package chromemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vedabase-notes/internal/embedding"
	"vedabase-notes/internal/models"
)

func testChunks() []models.Chunk {
	return []models.Chunk{
		{
			ChunkID:     "NOI-1-translation",
			ParentID:    "NOI-1",
			Book:        "NOI",
			VerseNumber: "1",
			Section:     models.SectionTranslation,
			Text:        "A sober person who can tolerate the urge to speak and control the senses",
			SourceURI:   "https://vedabase.io/en/library/noi/1/",
		},
		{
			ChunkID:     "NOI-2-purport",
			ParentID:    "NOI-2",
			Book:        "NOI",
			VerseNumber: "2",
			Section:     models.SectionPurport,
			Text:        "Eating too much and endeavoring for mundane things destroy devotional service",
			SourceURI:   "https://vedabase.io/en/library/noi/2/",
		},
	}
}

func newTestStore(t *testing.T) (*Store, *embedding.StubEmbedder) {
	t.Helper()
	embedder := embedding.NewStubEmbedder()
	store, err := NewStore("", "noi_test", true, embedder)
	require.NoError(t, err)
	return store, embedder
}

func TestStoreIndexAndQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("Indexing empty chunk set is an error", func(t *testing.T) {
		store, _ := newTestStore(t)

		assert.Error(t, store.Index(ctx, nil))
	})

	t.Run("Index stores every chunk", func(t *testing.T) {
		store, _ := newTestStore(t)

		require.NoError(t, store.Index(ctx, testChunks()))

		assert.Equal(t, 2, store.Count())
	})

	t.Run("Querying words from a chunk ranks it first", func(t *testing.T) {
		store, embedder := newTestStore(t)
		require.NoError(t, store.Index(ctx, testChunks()))

		queryVector, err := embedder.EmbedQuery(ctx, "control the senses and tolerate the urge to speak")
		require.NoError(t, err)

		hits, err := store.Query(ctx, queryVector, 2, nil)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "NOI-1-translation", hits[0].ChunkID)
		assert.Less(t, hits[0].Distance, hits[1].Distance)
	})

	t.Run("Hits carry chunk metadata", func(t *testing.T) {
		store, embedder := newTestStore(t)
		require.NoError(t, store.Index(ctx, testChunks()))

		queryVector, err := embedder.EmbedQuery(ctx, "eating too much")
		require.NoError(t, err)

		hits, err := store.Query(ctx, queryVector, 1, nil)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		hit := hits[0]
		assert.Equal(t, "2", hit.VerseNumber)
		assert.Equal(t, models.SectionPurport, hit.Section)
		assert.Equal(t, "https://vedabase.io/en/library/noi/2/", hit.SourceURI)
		assert.NotEmpty(t, hit.Text)
	})

	t.Run("Oversized topK is clamped to collection size", func(t *testing.T) {
		store, embedder := newTestStore(t)
		require.NoError(t, store.Index(ctx, testChunks()))

		queryVector, err := embedder.EmbedQuery(ctx, "devotional service")
		require.NoError(t, err)

		hits, err := store.Query(ctx, queryVector, 50, nil)
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})

	t.Run("Empty collection query yields no hits", func(t *testing.T) {
		store, embedder := newTestStore(t)

		queryVector, err := embedder.EmbedQuery(ctx, "anything")
		require.NoError(t, err)

		hits, err := store.Query(ctx, queryVector, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("Re-indexing replaces prior entries", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.Index(ctx, testChunks()))
		require.NoError(t, store.Index(ctx, testChunks()[:1]))

		assert.Equal(t, 1, store.Count())
	})

	t.Run("Metadata filter restricts candidates", func(t *testing.T) {
		store, embedder := newTestStore(t)
		require.NoError(t, store.Index(ctx, testChunks()))

		queryVector, err := embedder.EmbedQuery(ctx, "control the senses")
		require.NoError(t, err)

		hits, err := store.Query(ctx, queryVector, 1, map[string]string{"section": models.SectionPurport})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "NOI-2-purport", hits[0].ChunkID)
	})
}
