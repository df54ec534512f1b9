package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

		require.NoError(t, err)
		assert.Equal(t, "NOI", cfg.Book)
		assert.Equal(t, 8, cfg.RAG.TopK)
		assert.Equal(t, 8192, cfg.RAG.MaxTokens)
		assert.Equal(t, 300, cfg.RAG.ExcerptMaxChars)
		assert.Equal(t, 600, cfg.RAG.ContextMaxChars)
		assert.Equal(t, "ollama", cfg.EmbedLLM.Provider)
	})

	t.Run("Partial file keeps defaults for omitted keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("book: BG\nrag:\n  top_k: 3\n"), 0o644))

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "BG", cfg.Book)
		assert.Equal(t, 3, cfg.RAG.TopK)
		assert.Equal(t, 8192, cfg.RAG.MaxTokens)
		assert.Equal(t, "./data", cfg.Data.Dir)
	})

	t.Run("Malformed YAML is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("book: [unclosed"), 0o644))

		_, err := LoadConfig(path)

		assert.Error(t, err)
	})

	t.Run("Environment overrides secrets and tuning", func(t *testing.T) {
		t.Setenv("LLM_API_KEY", "test-key")
		t.Setenv("LLM_MODEL", "test/model")
		t.Setenv("RAG_TOP_K", "12")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

		require.NoError(t, err)
		assert.Equal(t, "test-key", cfg.LLM.Key)
		assert.Equal(t, "test/model", cfg.LLM.Model)
		assert.Equal(t, 12, cfg.RAG.TopK)
	})

	t.Run("Invalid RAG_TOP_K is ignored", func(t *testing.T) {
		t.Setenv("RAG_TOP_K", "not-a-number")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

		require.NoError(t, err)
		assert.Equal(t, 8, cfg.RAG.TopK)
	})
}

func TestDerivedPaths(t *testing.T) {
	cfg := defaultConfig()
	cfg.Data.Dir = "/var/data"

	assert.Equal(t, filepath.Join("/var/data", "raw", "noi", "noi_raw.json"), cfg.RawFile())
	assert.Equal(t, filepath.Join("/var/data", "clean", "noi_clean.jsonl"), cfg.CleanFile())
	assert.Equal(t, filepath.Join("/var/data", "chunks", "noi_chunks.jsonl"), cfg.ChunksFile())
	assert.Equal(t, filepath.Join("/var/data", "outputs", "jobs"), cfg.JobsDir())
	assert.Equal(t, filepath.Join("/var/data", "index"), cfg.IndexDir())
}
