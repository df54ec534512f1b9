package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// StubEmbedder is a deterministic bag-of-words embedder for tests and
// the smoke check. Texts sharing words get similar vectors, which is
// enough signal for ranking assertions without a model server.
type StubEmbedder struct {
	Dim int
}

func NewStubEmbedder() *StubEmbedder {
	return &StubEmbedder{Dim: 64}
}

func (s *StubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = s.embed(text)
	}
	return vectors, nil
}

func (s *StubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return s.embed(text), nil
}

func (s *StubEmbedder) embed(text string) []float32 {
	vec := make([]float32, s.Dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, `.,;:!?"'()[]`)
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[int(h.Sum32())%s.Dim]++
	}

	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	n := float32(math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}
