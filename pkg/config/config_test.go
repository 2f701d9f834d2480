package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, "results", cfg.ResultsBaseDir)
	assert.Equal(t, 200, cfg.MaxQueryLength)
	assert.True(t, cfg.MonteCarloEnabled())
	assert.Equal(t, 3, cfg.MonteCarloSamples)
	assert.Equal(t, 0.5, cfg.RelevanceFloor())
	assert.Equal(t, 5, cfg.WebSearchLimit)
	assert.Equal(t, 8, cfg.WebConcurrency)
	assert.False(t, cfg.IncludeWikipedia)
	assert.Equal(t, 1, cfg.MaxDepth)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, "all-minilm", cfg.RetrievalModel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:      "defaults_are_valid",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "min_relevance_out_of_range",
			mutate:    func(c *Config) { c.MinRelevance = floatPtr(1.5) },
			wantError: true,
		},
		{
			name:      "non_positive_top_k",
			mutate:    func(c *Config) { c.TopK = -1 },
			wantError: true,
		},
		{
			name:      "negative_max_depth",
			mutate:    func(c *Config) { c.MaxDepth = -1 },
			wantError: true,
		},
		{
			name:      "unknown_retrieval_model",
			mutate:    func(c *Config) { c.RetrievalModel = "bert-giant" },
			wantError: true,
		},
		{
			name:      "vision_family_accepted",
			mutate:    func(c *Config) { c.RetrievalModel = "siglip" },
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.SetDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
results_base_dir: out
min_relevance: 0.3
web_search_limit: 10
monte_carlo_search: false
include_wikipedia: true
retrieval_model: colpali
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.ResultsBaseDir)
	assert.Equal(t, 0.3, cfg.RelevanceFloor())
	assert.Equal(t, 10, cfg.WebSearchLimit)
	assert.False(t, cfg.MonteCarloEnabled())
	assert.True(t, cfg.IncludeWikipedia)
	assert.Equal(t, "colpali", cfg.RetrievalModel)
	// Untouched keys still default.
	assert.Equal(t, 8, cfg.WebConcurrency)
}

func TestLoadExplicitZeroFloor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_relevance: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// An explicit zero disables relevance gating rather than falling back
	// to the default floor.
	assert.Equal(t, 0.0, cfg.RelevanceFloor())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestAPIKeysNotMarshaled(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.LLM.APIKey = "sk-llm-secret"
	cfg.Embedder.APIKey = "sk-embed-secret"

	out, err := json.Marshal(cfg)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "sk-llm-secret")
	assert.NotContains(t, string(out), "sk-embed-secret")
}
