// Package config loads and validates the flat session configuration.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the flat configuration keys driving a research session.
type Config struct {
	// ResultsBaseDir is the root for per-session output directories.
	ResultsBaseDir string `yaml:"results_base_dir" json:"results_base_dir"`

	// MaxQueryLength is the split threshold for sub-query chunking.
	MaxQueryLength int `yaml:"max_query_length" json:"max_query_length"`

	// MonteCarloSearch enables weighted sub-query sampling.
	MonteCarloSearch *bool `yaml:"monte_carlo_search" json:"monte_carlo_search"`

	// MonteCarloSamples is the number of sub-queries selected by Monte Carlo.
	MonteCarloSamples int `yaml:"monte_carlo_samples" json:"monte_carlo_samples"`

	// MinRelevance is the branch-pruning threshold on unit-cosine similarity.
	// An explicit 0 disables gating.
	MinRelevance *float64 `yaml:"min_relevance" json:"min_relevance"`

	// WebSearchLimit is top_n per sub-query after reranking.
	WebSearchLimit int `yaml:"web_search_limit" json:"web_search_limit"`

	// WebConcurrency is the download semaphore width.
	WebConcurrency int `yaml:"web_concurrency" json:"web_concurrency"`

	// IncludeWikipedia enables the Wikipedia engine adapter.
	IncludeWikipedia bool `yaml:"include_wikipedia" json:"include_wikipedia"`

	// MaxDepth is the recursion limit for sub-query expansion.
	MaxDepth int `yaml:"max_depth" json:"max_depth"`

	// TopK is the number of knowledge-base entries retrieved for the final answer.
	TopK int `yaml:"top_k" json:"top_k"`

	// WebSearchEnabled toggles the whole web expansion phase.
	WebSearchEnabled *bool `yaml:"web_search_enabled" json:"web_search_enabled"`

	// CorpusDir points at a local document corpus to embed at session start.
	CorpusDir string `yaml:"corpus_dir" json:"corpus_dir"`

	// RetrievalModel selects the embedding family
	// (all-minilm, siglip, clip, colpali).
	RetrievalModel string `yaml:"retrieval_model" json:"retrieval_model"`

	LLM      LLMConfig      `yaml:"llm" json:"llm"`
	Embedder EmbedderConfig `yaml:"embedder" json:"embedder"`
}

// LLMConfig configures the language-model provider.
type LLMConfig struct {
	// Provider type (openai, anthropic, ollama).
	Provider string `yaml:"provider" json:"provider"`

	// Model name. Empty picks the provider default.
	Model string `yaml:"model" json:"model"`

	// APIKey for authentication. Empty falls back to the provider env var.
	// Never serialized to JSON so persisted artifacts stay secret-free.
	APIKey string `yaml:"api_key" json:"-"`

	// BaseURL overrides the default API endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Personality is prepended to system prompts when set.
	Personality string `yaml:"personality" json:"personality"`

	// Timeout in seconds per request.
	Timeout int `yaml:"timeout" json:"timeout"`

	// MaxRetries for transient failures.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// EmbedderConfig configures the text embedding provider.
type EmbedderConfig struct {
	// Provider type (openai, ollama).
	Provider string `yaml:"provider" json:"provider"`

	// Model name (e.g. "text-embedding-3-small", "nomic-embed-text").
	Model string `yaml:"model" json:"model"`

	APIKey  string `yaml:"api_key" json:"-"`
	Host    string `yaml:"host" json:"host"`
	Timeout int    `yaml:"timeout" json:"timeout"`
}

// SetDefaults applies the documented default values.
func (c *Config) SetDefaults() {
	if c.ResultsBaseDir == "" {
		c.ResultsBaseDir = "results"
	}
	if c.MaxQueryLength == 0 {
		c.MaxQueryLength = 200
	}
	if c.MonteCarloSearch == nil {
		v := true
		c.MonteCarloSearch = &v
	}
	if c.MonteCarloSamples == 0 {
		c.MonteCarloSamples = 3
	}
	if c.MinRelevance == nil {
		v := 0.5
		c.MinRelevance = &v
	}
	if c.WebSearchLimit == 0 {
		c.WebSearchLimit = 5
	}
	if c.WebConcurrency == 0 {
		c.WebConcurrency = 8
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 1
	}
	if c.TopK == 0 {
		c.TopK = 3
	}
	if c.WebSearchEnabled == nil {
		v := true
		c.WebSearchEnabled = &v
	}
	if c.RetrievalModel == "" {
		c.RetrievalModel = "all-minilm"
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.Model = "gpt-4o-mini"
		case "anthropic":
			c.LLM.Model = "claude-3-5-sonnet-latest"
		default:
			c.LLM.Model = "gemma2:2b"
		}
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 120
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 3
	}

	if c.Embedder.Provider == "" {
		c.Embedder.Provider = "ollama"
	}
	if c.Embedder.Model == "" {
		switch c.Embedder.Provider {
		case "openai":
			c.Embedder.Model = "text-embedding-3-small"
		default:
			c.Embedder.Model = "nomic-embed-text"
		}
	}
	if c.Embedder.APIKey == "" && c.Embedder.Provider == "openai" {
		c.Embedder.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Embedder.Host == "" && c.Embedder.Provider == "ollama" {
		c.Embedder.Host = "http://localhost:11434"
	}
	if c.Embedder.Timeout == 0 {
		c.Embedder.Timeout = 30
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if f := c.RelevanceFloor(); f < 0 || f > 1 {
		return fmt.Errorf("min_relevance must be in [0, 1], got %v", f)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.WebConcurrency < 1 {
		return fmt.Errorf("web_concurrency must be >= 1, got %d", c.WebConcurrency)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be >= 1, got %d", c.TopK)
	}
	switch c.RetrievalModel {
	case "all-minilm", "siglip", "clip", "colpali":
	default:
		return fmt.Errorf("unsupported retrieval_model: %q", c.RetrievalModel)
	}
	return nil
}

// Load reads a YAML config file, applies .env overrides, defaults, and
// validation. An empty path yields a default configuration.
func Load(path string) (*Config, error) {
	// Best-effort .env so TAVILY_API_KEY and friends are visible.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MonteCarloEnabled reports whether Monte-Carlo sub-query sampling is on.
func (c *Config) MonteCarloEnabled() bool {
	return c.MonteCarloSearch != nil && *c.MonteCarloSearch
}

// WebEnabled reports whether the web expansion phase is on.
func (c *Config) WebEnabled() bool {
	return c.WebSearchEnabled != nil && *c.WebSearchEnabled
}

// RelevanceFloor returns the branch-pruning similarity threshold. An explicit
// 0 in the config disables gating.
func (c *Config) RelevanceFloor() float64 {
	if c.MinRelevance == nil {
		return 0.5
	}
	return *c.MinRelevance
}
