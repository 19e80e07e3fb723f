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


package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/core"
)

const (
	// NoContentSummary is returned for the summary of empty text.
	NoContentSummary = "no content"
	// NoContentKeywords is returned for the keywords of empty text.
	NoContentKeywords = "no keywords"

	summaryFailedPrefix  = "summary generation failed: "
	keywordsFailedPrefix = "keyword extraction failed: "

	temperature = 0.3
	maxTokens   = 128
)

// ErrModelSourceRequired is returned when no model source is provided.
var ErrModelSourceRequired = errors.New("model source required")

// Enricher generates a summary and a keyword list for document text.
// Results are never cached; every call reaches the completion backend.
type Enricher struct {
	models   ai.ModelSource
	pool     *ants.Pool
	language string
	logger   *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher) error

// WithPoolSize sets the worker pool size used by EnrichHits.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Enricher) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if e.pool != nil {
			e.pool.Release()
		}
		e.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "enricher")
		return nil
	}
}

// WithLanguage sets the language summaries and keywords are written in.
// Default is English.
func WithLanguage(language string) Option {
	return func(e *Enricher) error {
		if language != "" {
			e.language = language
		}
		return nil
	}
}

// NewEnricher creates an enricher that asks models for the active chat model
// on every request.
func NewEnricher(models ai.ModelSource, opts ...Option) (*Enricher, error) {
	if models == nil {
		return nil, ErrModelSourceRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	e := &Enricher{
		models:   models,
		pool:     pool,
		language: "English",
		logger:   slog.Default().With("component", "enricher"),
	}

	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}

	return e, nil
}

// Enrich returns a summary and keywords for text. Empty text yields the
// no-content sentinels without contacting the backend. A failed request is
// reported inline in the corresponding result; the other is unaffected.
func (e *Enricher) Enrich(ctx context.Context, text string) (summary, keywords string) {
	if strings.TrimSpace(text) == "" {
		return NoContentSummary, NoContentKeywords
	}

	summary = e.complete(ctx, summaryFailedPrefix,
		fmt.Sprintf("You are a professional summarization assistant. Reply in %s with the summary only and nothing else.", e.language),
		fmt.Sprintf("Write a concise summary of the following content in %s. Return only the summary:\n%s", e.language, text))

	keywords = e.complete(ctx, keywordsFailedPrefix,
		fmt.Sprintf("You are a professional keyword assistant. Reply in %s with keywords only and nothing else.", e.language),
		fmt.Sprintf("Extract the keywords of the following content in %s. Return only the keywords:\n%s", e.language, text))

	return summary, keywords
}

func (e *Enricher) complete(ctx context.Context, failurePrefix, system, prompt string) string {
	model, err := e.models.ChatModel()
	if err != nil {
		e.logger.Warn("no chat model for enrichment", "err", err)
		return failurePrefix + err.Error()
	}

	out, err := model.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: prompt},
	}, ai.WithTemperature(temperature), ai.WithMaxTokens(maxTokens))
	if err != nil {
		e.logger.Error("enrichment request failed", "err", err)
		return failurePrefix + err.Error()
	}
	return strings.TrimSpace(out)
}

// EnrichHits enriches every hit concurrently on the worker pool. The result
// preserves the order of hits.
func (e *Enricher) EnrichHits(ctx context.Context, hits []core.SearchHit) []core.EnrichedHit {
	results := make([]core.EnrichedHit, len(hits))

	var wg sync.WaitGroup
	for i, hit := range hits {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			summary, keywords := e.Enrich(ctx, hit.Text())
			results[i] = core.EnrichedHit{SearchHit: hit, Summary: summary, Keywords: keywords}
		}
		if err := e.pool.Submit(task); err != nil {
			e.logger.Warn("worker pool rejected task, enriching inline", "err", err)
			task()
		}
	}
	wg.Wait()

	return results
}

// Release releases the worker pool. EnrichHits still works afterwards but
// runs sequentially.
func (e *Enricher) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}
