// Package config loads kbsearch settings from a JSON file and KBSEARCH_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/provider"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. KBSEARCH_SEARCH_DEFAULT_TOP_K.
const EnvPrefix = "KBSEARCH"

// Config is the parsed configuration.
type Config struct {
	Embedding       EmbeddingConfig   `mapstructure:"embedding"`
	Meilisearch     MeilisearchConfig `mapstructure:"meilisearch"`
	DefaultProvider string            `mapstructure:"default_provider"`
	WebSearch       WebSearchConfig   `mapstructure:"web_search"`
	Search          SearchConfig      `mapstructure:"search"`
	Chat            ChatConfig        `mapstructure:"chat"`

	// Providers holds every top-level block decoded as a provider, keyed by
	// block name. The provider registry decides which ones are usable.
	Providers map[string]core.ProviderConfig `mapstructure:"-"`
}

type EmbeddingConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type MeilisearchConfig struct {
	URL      string `mapstructure:"url"`
	APIKey   string `mapstructure:"api_key"`
	Embedder string `mapstructure:"embedder"`
}

// WebSearchConfig leaves web search disabled when URL is empty.
type WebSearchConfig struct {
	URL         string `mapstructure:"url"`
	APIKey      string `mapstructure:"api_key"`
	DefaultTool string `mapstructure:"default_tool"`
	// Timeout is in seconds.
	Timeout int `mapstructure:"timeout"`
}

// TimeoutDuration returns Timeout as a duration.
func (w WebSearchConfig) TimeoutDuration() time.Duration {
	return time.Duration(w.Timeout) * time.Second
}

// Enabled reports whether a web search endpoint is configured.
func (w WebSearchConfig) Enabled() bool {
	return strings.TrimSpace(w.URL) != ""
}

type SearchConfig struct {
	DefaultKnowledgeBase string  `mapstructure:"default_knowledge_base"`
	DefaultSemanticRatio float64 `mapstructure:"default_semantic_ratio"`
	DefaultTopK          int     `mapstructure:"default_top_k"`
	MaxTopK              int     `mapstructure:"max_top_k"`
}

type ChatConfig struct {
	Language        string `mapstructure:"language"`
	SessionTemplate string `mapstructure:"session_template"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("embedding.url", "http://localhost:8080/v1/embeddings")
	v.SetDefault("embedding.model", "bge-m3")
	v.SetDefault("meilisearch.url", "http://localhost:7700")
	v.SetDefault("meilisearch.embedder", "bge_m3")
	v.SetDefault("web_search.default_tool", "")
	v.SetDefault("web_search.timeout", 30)
	v.SetDefault("search.default_semantic_ratio", 0.5)
	v.SetDefault("search.default_top_k", 10)
	v.SetDefault("search.max_top_k", 50)
	v.SetDefault("chat.language", "English")
	v.SetDefault("chat.session_template", "Chat %d")
}

// Load reads path, or config.json from the working directory or ./config
// when path is empty. A missing default file is not an error; a missing
// explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("json")
	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range provider.KnownProviders {
		for _, field := range []string{"base_url", "api_key", "model"} {
			if err := v.BindEnv(key + "." + field); err != nil {
				return nil, err
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config: %w", core.ErrConfiguration, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %w", core.ErrConfiguration, err)
	}

	config.Providers = decodeProviders(v)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// decodeProviders reads every top-level mapping as a provider block. Fields
// are read one by one so environment overrides of single fields apply.
func decodeProviders(v *viper.Viper) map[string]core.ProviderConfig {
	out := make(map[string]core.ProviderConfig)
	for key, value := range v.AllSettings() {
		if _, ok := value.(map[string]any); !ok {
			continue
		}
		out[key] = core.ProviderConfig{
			Key:     key,
			BaseURL: v.GetString(key + ".base_url"),
			APIKey:  v.GetString(key + ".api_key"),
			Model:   v.GetString(key + ".model"),
		}
	}
	return out
}

// Validate checks every section.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Embedding.URL) == "" {
		return fmt.Errorf("%w: embedding.url is required", core.ErrConfiguration)
	}
	if strings.TrimSpace(c.Meilisearch.URL) == "" {
		return fmt.Errorf("%w: meilisearch.url is required", core.ErrConfiguration)
	}
	if c.WebSearch.Timeout < 0 {
		return fmt.Errorf("%w: web_search.timeout must not be negative", core.ErrConfiguration)
	}

	s := c.Search
	if s.DefaultSemanticRatio < 0 || s.DefaultSemanticRatio > 1 {
		return fmt.Errorf("%w: search.default_semantic_ratio must be within [0, 1]", core.ErrConfiguration)
	}
	if s.DefaultTopK < 1 {
		return fmt.Errorf("%w: search.default_top_k must be at least 1", core.ErrConfiguration)
	}
	if s.MaxTopK < s.DefaultTopK {
		return fmt.Errorf("%w: search.max_top_k must be at least search.default_top_k", core.ErrConfiguration)
	}
	if c.DefaultProvider != "" && !provider.IsKnown(c.DefaultProvider) {
		return fmt.Errorf("%w: default_provider %q", core.ErrUnknownProvider, c.DefaultProvider)
	}
	return nil
}
