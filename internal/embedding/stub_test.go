package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestStubEmbedder(t *testing.T) {
	ctx := context.Background()
	embedder := NewStubEmbedder()

	t.Run("Vectors are deterministic and unit length", func(t *testing.T) {
		a, err := embedder.EmbedQuery(ctx, "controlling the senses")
		require.NoError(t, err)
		b, err := embedder.EmbedQuery(ctx, "controlling the senses")
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.InDelta(t, 1.0, cosine(a, a), 1e-5)
	})

	t.Run("Shared words mean higher similarity", func(t *testing.T) {
		vectors, err := embedder.EmbedTexts(ctx, []string{
			"tolerate the urge to speak and control the senses",
			"eating too much and hoarding mundane possessions",
		})
		require.NoError(t, err)
		require.Len(t, vectors, 2)

		query, err := embedder.EmbedQuery(ctx, "control the senses")
		require.NoError(t, err)

		assert.Greater(t, cosine(query, vectors[0]), cosine(query, vectors[1]))
	})

	t.Run("Empty text still embeds", func(t *testing.T) {
		vec, err := embedder.EmbedQuery(ctx, "")
		require.NoError(t, err)
		require.Len(t, vec, 64)

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		assert.False(t, math.IsNaN(norm))
		assert.InDelta(t, 1.0, norm, 1e-5)
	})
}
