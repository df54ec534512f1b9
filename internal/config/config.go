package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Book     string     `yaml:"book"`
	Data     DataConfig `yaml:"data"`
	LLM      LLMConfig  `yaml:"llm"`
	EmbedLLM LLMConfig  `yaml:"embed_llm"`
	RAG      RAGConfig  `yaml:"rag"`

	// Path to the noi-search scraper; its data.json is the raw input.
	ScraperPath string `yaml:"scraper_path"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	TopK            int `yaml:"top_k"`
	MaxTokens       int `yaml:"max_tokens"`
	ExcerptMaxChars int `yaml:"excerpt_max_chars"`
	ContextMaxChars int `yaml:"context_max_chars"`
}

const (
	defaultTopK            = 8
	defaultMaxTokens       = 8192
	defaultExcerptMaxChars = 300
	defaultContextMaxChars = 600
)

// LoadConfig reads the YAML config file and applies .env / environment
// overrides for secrets. A missing file is not an error: defaults apply,
// so the pipeline stages that need no credentials run out of the box.
func LoadConfig(path string) (*Config, error) {
	// .env in the working directory, if present
	_ = godotenv.Load()

	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Book: "NOI",
		Data: DataConfig{Dir: "./data"},
		LLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "https://openrouter.ai/api/v1",
			Model:    "anthropic/claude-sonnet-4",
		},
		EmbedLLM: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		RAG: RAGConfig{
			TopK:            defaultTopK,
			MaxTokens:       defaultMaxTokens,
			ExcerptMaxChars: defaultExcerptMaxChars,
			ContextMaxChars: defaultContextMaxChars,
		},
	}
}

// applyDefaults fills zero values left by a partial config file.
func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Book == "" {
		cfg.Book = def.Book
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = def.Data.Dir
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = def.LLM.BaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = def.EmbedLLM.Provider
	}
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = def.EmbedLLM.BaseURL
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = def.EmbedLLM.Model
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = def.RAG.TopK
	}
	if cfg.RAG.MaxTokens == 0 {
		cfg.RAG.MaxTokens = def.RAG.MaxTokens
	}
	if cfg.RAG.ExcerptMaxChars == 0 {
		cfg.RAG.ExcerptMaxChars = def.RAG.ExcerptMaxChars
	}
	if cfg.RAG.ContextMaxChars == 0 {
		cfg.RAG.ContextMaxChars = def.RAG.ContextMaxChars
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.Key = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("EMBED_BASE_URL"); v != "" {
		cfg.EmbedLLM.BaseURL = v
	}
	if v := os.Getenv("EMBED_MODEL"); v != "" {
		cfg.EmbedLLM.Model = v
	}
	if v := os.Getenv("NOI_SCRAPER_PATH"); v != "" {
		cfg.ScraperPath = v
	}
	if v := os.Getenv("RAG_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RAG.TopK = n
		}
	}
}

// Derived data directories. Document order of the pipeline:
// raw -> clean -> chunks -> index -> outputs.

func (c *Config) RawDir() string    { return filepath.Join(c.Data.Dir, "raw", "noi") }
func (c *Config) CleanDir() string  { return filepath.Join(c.Data.Dir, "clean") }
func (c *Config) ChunksDir() string { return filepath.Join(c.Data.Dir, "chunks") }
func (c *Config) IndexDir() string  { return filepath.Join(c.Data.Dir, "index") }
func (c *Config) OutDir() string    { return filepath.Join(c.Data.Dir, "outputs") }
func (c *Config) JobsDir() string   { return filepath.Join(c.OutDir(), "jobs") }

func (c *Config) RawFile() string    { return filepath.Join(c.RawDir(), "noi_raw.json") }
func (c *Config) CleanFile() string  { return filepath.Join(c.CleanDir(), "noi_clean.jsonl") }
func (c *Config) ChunksFile() string { return filepath.Join(c.ChunksDir(), "noi_chunks.jsonl") }
