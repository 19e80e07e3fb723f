// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/kbsearch/core"
)

// EmbeddingConfig holds configuration for the embedding service.
type EmbeddingConfig struct {
	// URL is the full endpoint that accepts {"texts": [...], "model": "..."}.
	// Example: "http://localhost:8080/v1/embeddings"
	URL string

	// APIKey is sent as a bearer token.
	APIKey string

	// Model is the embedding model identifier.
	// Example: "bge-m3"
	Model string

	// Timeout bounds a single embedding request. Zero means no client-side
	// timeout; the caller's context still applies.
	Timeout time.Duration
}

// EmbeddingOption is a functional option for configuring an EmbeddingConfig.
type EmbeddingOption func(*EmbeddingConfig)

// WithEmbeddingURL sets the embedding endpoint.
func WithEmbeddingURL(url string) EmbeddingOption {
	return func(c *EmbeddingConfig) {
		c.URL = url
	}
}

// WithEmbeddingAPIKey sets the bearer token.
func WithEmbeddingAPIKey(key string) EmbeddingOption {
	return func(c *EmbeddingConfig) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) EmbeddingOption {
	return func(c *EmbeddingConfig) {
		c.Model = model
	}
}

// WithEmbeddingTimeout sets the per-request timeout.
func WithEmbeddingTimeout(d time.Duration) EmbeddingOption {
	return func(c *EmbeddingConfig) {
		c.Timeout = d
	}
}

// DefaultEmbeddingConfig returns a config pointing at a local embedding service.
func DefaultEmbeddingConfig() *EmbeddingConfig {
	return &EmbeddingConfig{
		URL:     "http://localhost:8080/v1/embeddings",
		Model:   "bge-m3",
		Timeout: 30 * time.Second,
	}
}

// NewEmbeddingConfig creates an EmbeddingConfig with the default values and
// applies the provided options.
//
// Example:
//
//	cfg := NewEmbeddingConfig(
//	    WithEmbeddingURL("https://embed.example.com/v1/embeddings"),
//	    WithEmbeddingAPIKey(os.Getenv("EMBED_KEY")),
//	)
func NewEmbeddingConfig(opts ...EmbeddingOption) *EmbeddingConfig {
	cfg := DefaultEmbeddingConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is complete.
func (c *EmbeddingConfig) Validate() error {
	c.URL = strings.TrimSpace(c.URL)

	if c.URL == "" {
		return fmt.Errorf("%w: embedding config: URL is required", core.ErrConfiguration)
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("%w: embedding config: URL %q must be http or https", core.ErrConfiguration, c.URL)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: embedding config: Model is required", core.ErrConfiguration)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: %w", core.ErrConfiguration, errors.New("embedding config: Timeout cannot be negative"))
	}
	return nil
}
