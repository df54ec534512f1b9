package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"vedabase-notes/internal/config"
)

// Embedder turns text into fixed-dimension vectors. The index store and
// the retriever must share one Embedder instance: mixing embedding
// versions between index time and query time silently degrades
// relevance with no error signal.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// langchainEmbedder adapts a langchaingo embedder to the Embedder
// interface. It is constructed once and reused for process lifetime.
type langchainEmbedder struct {
	impl *embeddings.EmbedderImpl
}

func (e *langchainEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return e.impl.EmbedDocuments(ctx, texts)
}

func (e *langchainEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.impl.EmbedQuery(ctx, text)
}

// NewEmbedder builds the embedder named by the config: a local ollama
// model by default, or an OpenAI-compatible endpoint.
func NewEmbedder(cfg *config.LLMConfig) (Embedder, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaEmbedder(cfg)
	case "openai":
		return NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// NewOllamaEmbedder creates an embedder backed by a local ollama server.
func NewOllamaEmbedder(cfg *config.LLMConfig) (Embedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama embedder: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return &langchainEmbedder{impl: impl}, nil
}

// NewOpenAIEmbedder creates an embedder backed by an OpenAI-compatible
// embeddings endpoint.
func NewOpenAIEmbedder(cfg *config.LLMConfig) (Embedder, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize openai embedder: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return &langchainEmbedder{impl: impl}, nil
}
