package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"vedabase-notes/internal/embedding"
	"vedabase-notes/internal/models"
)

const (
	compress  = false
	batchSize = 32
)

// Store wraps a chromem-go collection holding one vector per chunk_id.
// The on-disk layout is chromem's own; callers only see the operations
// below.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embedding.Embedder
}

// NewStore opens (or creates) the vector collection. With inMemory set
// the store lives only for the process, which the smoke test relies on.
func NewStore(dbPath, collectionName string, inMemory bool, embedder embedding.Embedder) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create vector database: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}

	return &Store{
		db:         db,
		collection: collection,
		embedder:   embedder,
	}, nil
}

// Index embeds every chunk and stores it under its chunk_id. Indexing is
// a full rebuild: any prior entries for the same book are deleted first,
// so re-chunking upstream never leaves stale or duplicate vectors.
// Chunks are processed in fixed-size batches to bound peak memory.
func (s *Store) Index(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index")
	}

	book := chunks[0].Book
	if existing := s.collection.Count(); existing > 0 {
		log.Info().Int("existing", existing).Str("book", book).Msg("Clearing collection before re-index")
		if err := s.collection.Delete(ctx, map[string]string{"book": book}, nil); err != nil {
			return fmt.Errorf("failed to clear prior entries for book %s: %w", book, err)
		}
	}

	total := len(chunks)
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks", len(vectors), len(batch))
		}

		docs := make([]chromem.Document, len(batch))
		for i, chunk := range batch {
			docs[i] = chromem.Document{
				ID:        chunk.ChunkID,
				Content:   chunk.Text,
				Embedding: vectors[i],
				Metadata: map[string]string{
					"parent_id":    chunk.ParentID,
					"book":         chunk.Book,
					"verse_number": chunk.VerseNumber,
					"section":      chunk.Section,
					"source_uri":   chunk.SourceURI,
				},
			}
		}

		if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("failed to add documents: %w", err)
		}

		log.Info().Int("indexed", end).Int("total", total).Msg("Indexed chunks")
	}

	return nil
}

// Query returns the topK nearest chunks for the query vector, ascending
// by cosine distance. An optional metadata filter restricts candidates
// before ranking.
func (s *Store) Query(ctx context.Context, queryVector []float32, topK int, where map[string]string) ([]models.RetrievalHit, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryVector,
		NResults:       topK,
		Where:          where,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	hits := make([]models.RetrievalHit, 0, len(results))
	for _, result := range results {
		hits = append(hits, models.RetrievalHit{
			Text:        result.Content,
			ChunkID:     result.ID,
			VerseNumber: result.Metadata["verse_number"],
			Section:     result.Metadata["section"],
			SourceURI:   result.Metadata["source_uri"],
			// chromem reports cosine similarity; distance keeps the
			// lower-is-better contract.
			Distance: 1 - result.Similarity,
		})
	}
	return hits, nil
}

// Count is the authoritative number of indexed chunks; non-zero means
// the pipeline has been run.
func (s *Store) Count() int {
	return s.collection.Count()
}
