package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/kbsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
  "embedding": {"url": "http://embed.local/v1/embeddings", "api_key": "emb-key", "model": "bge-m3"},
  "meilisearch": {"url": "http://meili.local:7700", "api_key": "meili-key", "embedder": "bge_m3"},
  "openai": {"base_url": "https://api.openai.com/v1", "api_key": "sk-openai", "model": "gpt-4o-mini"},
  "deepseek": {"base_url": "https://api.deepseek.com", "api_key": "", "model": "deepseek-chat"},
  "default_provider": "openai",
  "web_search": {"url": "http://search.local/api", "api_key": "ws-key", "default_tool": "quark_search", "timeout": 12},
  "search": {"default_knowledge_base": "reports", "default_semantic_ratio": 0.3, "default_top_k": 5, "max_top_k": 20},
  "chat": {"language": "Chinese"}
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, sampleConfig))
		require.NoError(t, err)

		assert.Equal(t, EmbeddingConfig{URL: "http://embed.local/v1/embeddings", APIKey: "emb-key", Model: "bge-m3"}, cfg.Embedding)
		assert.Equal(t, MeilisearchConfig{URL: "http://meili.local:7700", APIKey: "meili-key", Embedder: "bge_m3"}, cfg.Meilisearch)
		assert.Equal(t, "openai", cfg.DefaultProvider)
		assert.Equal(t, 12*time.Second, cfg.WebSearch.TimeoutDuration())
		assert.True(t, cfg.WebSearch.Enabled())
		assert.Equal(t, "quark_search", cfg.WebSearch.DefaultTool)
		assert.Equal(t, SearchConfig{DefaultKnowledgeBase: "reports", DefaultSemanticRatio: 0.3, DefaultTopK: 5, MaxTopK: 20}, cfg.Search)
		assert.Equal(t, "Chinese", cfg.Chat.Language)
		assert.Equal(t, "Chat %d", cfg.Chat.SessionTemplate)
	})

	t.Run("every block is offered as a provider", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, sampleConfig))
		require.NoError(t, err)

		assert.Equal(t, core.ProviderConfig{
			Key:     "openai",
			BaseURL: "https://api.openai.com/v1",
			APIKey:  "sk-openai",
			Model:   "gpt-4o-mini",
		}, cfg.Providers["openai"])
		assert.Contains(t, cfg.Providers, "deepseek")
		assert.Contains(t, cfg.Providers, "embedding")
		assert.Equal(t, "emb-key", cfg.Providers["embedding"].APIKey)
		assert.NotContains(t, cfg.Providers, "default_provider")
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `{}`))
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:8080/v1/embeddings", cfg.Embedding.URL)
		assert.Equal(t, "bge_m3", cfg.Meilisearch.Embedder)
		assert.Equal(t, 30*time.Second, cfg.WebSearch.TimeoutDuration())
		assert.False(t, cfg.WebSearch.Enabled())
		assert.Equal(t, 0.5, cfg.Search.DefaultSemanticRatio)
		assert.Equal(t, 10, cfg.Search.DefaultTopK)
		assert.Equal(t, 50, cfg.Search.MaxTopK)
		assert.Equal(t, "English", cfg.Chat.Language)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("KBSEARCH_SEARCH_DEFAULT_TOP_K", "7")
		t.Setenv("KBSEARCH_DEEPSEEK_API_KEY", "sk-env")

		cfg, err := Load(writeConfig(t, sampleConfig))
		require.NoError(t, err)

		assert.Equal(t, 7, cfg.Search.DefaultTopK)
		assert.Equal(t, "sk-env", cfg.Providers["deepseek"].APIKey)
	})

	t.Run("provider from environment only", func(t *testing.T) {
		t.Setenv("KBSEARCH_MOONSHOT_API_KEY", "sk-moon")

		cfg, err := Load(writeConfig(t, `{}`))
		require.NoError(t, err)
		assert.Equal(t, "sk-moon", cfg.Providers["moonshot"].APIKey)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"search": `))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"search": {"default_semantic_ratio": 1.5}}`))
		assert.ErrorIs(t, err, core.ErrConfiguration)

		_, err = Load(writeConfig(t, `{"default_provider": "embedding"}`))
		assert.ErrorIs(t, err, core.ErrUnknownProvider)
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Embedding:   EmbeddingConfig{URL: "http://e"},
			Meilisearch: MeilisearchConfig{URL: "http://m"},
			Search:      SearchConfig{DefaultSemanticRatio: 0.5, DefaultTopK: 10, MaxTopK: 50},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing embedding url", func(c *Config) { c.Embedding.URL = " " }, true},
		{"missing meilisearch url", func(c *Config) { c.Meilisearch.URL = "" }, true},
		{"negative timeout", func(c *Config) { c.WebSearch.Timeout = -1 }, true},
		{"ratio below zero", func(c *Config) { c.Search.DefaultSemanticRatio = -0.1 }, true},
		{"zero top k", func(c *Config) { c.Search.DefaultTopK = 0 }, true},
		{"max below default", func(c *Config) { c.Search.MaxTopK = 5 }, true},
		{"known default provider", func(c *Config) { c.DefaultProvider = "zhipu" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
