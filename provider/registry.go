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


// Package provider keeps the set of configured chat-completion backends and
// the one currently in use.
//
// The active backend is held as a single immutable binding of config and
// model. SetActive builds the new model first and then replaces the binding
// in one atomic store, so a caller never observes the endpoint of one
// provider paired with the credential of another.
package provider

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/ai/openai"
	"github.com/poiesic/kbsearch/core"
)

// KnownProviders lists the provider identifiers that may be offered as chat
// backends. Configuration blocks under any other key are ignored.
var KnownProviders = []string{
	"openai",
	"qwen",
	"deepseek",
	"moonshot",
	"zhipu",
	"siliconflow",
	"ollama",
}

// IsKnown reports whether key is an allow-listed provider identifier.
func IsKnown(key string) bool {
	return slices.Contains(KnownProviders, key)
}

// ModelFactory builds a chat model for a provider block.
type ModelFactory func(core.ProviderConfig) (ai.ChatModel, error)

type binding struct {
	config core.ProviderConfig
	model  ai.ChatModel
}

// Registry implements ai.ModelSource over the configured providers.
type Registry struct {
	providers map[string]core.ProviderConfig
	keys      []string

	// mu serializes SetActive; readers only load active.
	mu      sync.Mutex
	active  atomic.Pointer[binding]
	factory ModelFactory
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry) error

// WithModelFactory replaces how chat models are built.
// Default is openai.NewChatModel.
func WithModelFactory(factory ModelFactory) Option {
	return func(r *Registry) error {
		if factory == nil {
			factory = openai.NewChatModel
		}
		r.factory = factory
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "provider-registry")
		return nil
	}
}

// NewRegistry registers every allow-listed block that carries an API key.
// The map key is the provider identifier and overrides any Key set in the
// block.
//
// If defaultKey is non-empty it is activated and must be available. Otherwise
// the first available provider in sorted order becomes active, if there is
// one.
func NewRegistry(blocks map[string]core.ProviderConfig, defaultKey string, opts ...Option) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]core.ProviderConfig),
		factory:   openai.NewChatModel,
		logger:    slog.Default().With("component", "provider-registry"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	for key, block := range blocks {
		key = strings.ToLower(strings.TrimSpace(key))
		if !IsKnown(key) {
			continue
		}
		if strings.TrimSpace(block.APIKey) == "" {
			r.logger.Debug("skipping provider without api key", "provider", key)
			continue
		}
		block.Key = key
		r.providers[key] = block
		r.keys = append(r.keys, key)
	}
	sort.Strings(r.keys)

	switch {
	case defaultKey != "":
		if err := r.SetActive(defaultKey); err != nil {
			return nil, err
		}
	case len(r.keys) > 0:
		if err := r.SetActive(r.keys[0]); err != nil {
			return nil, err
		}
	default:
		r.logger.Warn("no chat provider configured")
	}
	return r, nil
}

// ListAvailable returns the registered provider keys in sorted order.
func (r *Registry) ListAvailable() []string {
	return slices.Clone(r.keys)
}

// SetActive binds key as the active provider. If the model cannot be built
// the previous binding stays in place.
func (r *Registry) SetActive(key string) error {
	config, ok := r.providers[key]
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownProvider, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	model, err := r.factory(config)
	if err != nil {
		r.logger.Error("failed to build chat model", "provider", key, "err", err)
		return err
	}

	r.active.Store(&binding{config: config, model: model})
	r.logger.Info("active provider changed", "provider", key, "model", config.Model)
	return nil
}

// Current returns the active provider's configuration.
func (r *Registry) Current() (core.ProviderConfig, error) {
	b := r.active.Load()
	if b == nil {
		return core.ProviderConfig{}, core.ErrNoProviderConfigured
	}
	return b.config, nil
}

// ActiveKey returns the active provider key, or "" when none is active.
func (r *Registry) ActiveKey() string {
	if b := r.active.Load(); b != nil {
		return b.config.Key
	}
	return ""
}

// ChatModel returns the model bound to the active provider.
func (r *Registry) ChatModel() (ai.ChatModel, error) {
	b := r.active.Load()
	if b == nil {
		return nil, core.ErrNoProviderConfigured
	}
	return b.model, nil
}
