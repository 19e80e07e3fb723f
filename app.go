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


package kbsearch

import (
	"log/slog"

	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/ai/rest"
	"github.com/poiesic/kbsearch/chat"
	"github.com/poiesic/kbsearch/config"
	"github.com/poiesic/kbsearch/enrich"
	"github.com/poiesic/kbsearch/index"
	"github.com/poiesic/kbsearch/index/meili"
	"github.com/poiesic/kbsearch/provider"
	"github.com/poiesic/kbsearch/search"
	"github.com/poiesic/kbsearch/telemetry"
	"github.com/poiesic/kbsearch/websearch"
)

// App wires the search, enrichment and chat components from one Config.
type App struct {
	providers *provider.Registry
	searcher  *search.Searcher
	enricher  *enrich.Enricher
	chat      *chat.Orchestrator
	logger    *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	logger       *slog.Logger
	metrics      *telemetry.Metrics
	embedder     ai.Embedder
	index        index.Searcher
	modelFactory provider.ModelFactory
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) AppOption {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithMetrics attaches prometheus metrics to search and chat.
func WithMetrics(m *telemetry.Metrics) AppOption {
	return func(o *appOptions) {
		o.metrics = m
	}
}

// WithEmbedder replaces the configured embedding endpoint.
func WithEmbedder(e ai.Embedder) AppOption {
	return func(o *appOptions) {
		o.embedder = e
	}
}

// WithIndex replaces the configured Meilisearch instance.
func WithIndex(idx index.Searcher) AppOption {
	return func(o *appOptions) {
		o.index = idx
	}
}

// WithModelFactory replaces how provider chat models are built.
func WithModelFactory(f provider.ModelFactory) AppOption {
	return func(o *appOptions) {
		o.modelFactory = f
	}
}

func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	providers, err := provider.NewRegistry(cfg.Providers, cfg.DefaultProvider,
		provider.WithLogger(logger),
		provider.WithModelFactory(options.modelFactory),
	)
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = rest.NewEmbedder(ai.NewEmbeddingConfig(
			ai.WithEmbeddingURL(cfg.Embedding.URL),
			ai.WithEmbeddingAPIKey(cfg.Embedding.APIKey),
			ai.WithEmbeddingModel(cfg.Embedding.Model),
		))
		if err != nil {
			return nil, err
		}
	}

	idx := options.index
	if idx == nil {
		idx, err = meili.NewClient(meili.Config{URL: cfg.Meilisearch.URL, APIKey: cfg.Meilisearch.APIKey},
			meili.WithLogger(logger))
		if err != nil {
			return nil, err
		}
	}

	searchOpts := []search.Option{
		search.WithLogger(logger),
		search.WithEmbedderName(cfg.Meilisearch.Embedder),
		search.WithDefaults(search.Defaults{
			KnowledgeBase:  cfg.Search.DefaultKnowledgeBase,
			SemanticWeight: cfg.Search.DefaultSemanticRatio,
			TopK:           cfg.Search.DefaultTopK,
			MaxTopK:        cfg.Search.MaxTopK,
		}),
	}
	if options.metrics != nil {
		searchOpts = append(searchOpts, search.WithMonitor(options.metrics))
	}
	searcher, err := search.NewSearcher(idx, embedder, searchOpts...)
	if err != nil {
		return nil, err
	}

	enricher, err := enrich.NewEnricher(providers,
		enrich.WithLogger(logger),
		enrich.WithLanguage(cfg.Chat.Language),
	)
	if err != nil {
		return nil, err
	}

	// A nil *websearch.Client must not reach the orchestrator as a non-nil
	// interface.
	var web chat.WebSearcher
	if cfg.WebSearch.Enabled() {
		client, err := websearch.NewClient(websearch.Config{
			URL:         cfg.WebSearch.URL,
			APIKey:      cfg.WebSearch.APIKey,
			DefaultTool: cfg.WebSearch.DefaultTool,
			Timeout:     cfg.WebSearch.TimeoutDuration(),
		}, websearch.WithLogger(logger))
		if err != nil {
			enricher.Release()
			return nil, err
		}
		web = client
	}

	chatOpts := []chat.Option{
		chat.WithLogger(logger),
		chat.WithLanguage(cfg.Chat.Language),
	}
	if options.metrics != nil {
		chatOpts = append(chatOpts, chat.WithMonitor(options.metrics))
	}
	orchestrator, err := chat.NewOrchestrator(chat.NewSessions(), providers, web, chatOpts...)
	if err != nil {
		enricher.Release()
		return nil, err
	}

	return &App{
		providers: providers,
		searcher:  searcher,
		enricher:  enricher,
		chat:      orchestrator,
		logger:    logger,
	}, nil
}

func (a *App) Providers() *provider.Registry {
	return a.providers
}

func (a *App) Searcher() *search.Searcher {
	return a.searcher
}

func (a *App) Enricher() *enrich.Enricher {
	return a.enricher
}

func (a *App) Chat() *chat.Orchestrator {
	return a.chat
}

// Close releases the enrichment worker pool.
func (a *App) Close() error {
	a.logger.Debug("closing app")
	a.enricher.Release()
	return nil
}
