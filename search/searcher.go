package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/index"
)

// DefaultEmbedderName is the index-side embedder used when none is configured.
const DefaultEmbedderName = "bge_m3"

// Defaults fill in queries built from bare text and bound TopK.
type Defaults struct {
	KnowledgeBase  string
	SemanticWeight float64
	TopK           int
	MaxTopK        int
}

// DefaultDefaults returns the defaults used when none are configured.
func DefaultDefaults() Defaults {
	return Defaults{
		SemanticWeight: 0.5,
		TopK:           10,
		MaxTopK:        50,
	}
}

// Validate checks that the defaults describe a usable query.
func (d Defaults) Validate() error {
	if d.MaxTopK < 1 {
		return fmt.Errorf("%w: max top k %d is below 1", ErrInvalidDefaults, d.MaxTopK)
	}
	if d.TopK < 1 || d.TopK > d.MaxTopK {
		return fmt.Errorf("%w: top k %d outside [1, %d]", ErrInvalidDefaults, d.TopK, d.MaxTopK)
	}
	if d.SemanticWeight < 0 || d.SemanticWeight > 1 {
		return fmt.Errorf("%w: semantic weight %v outside [0, 1]", ErrInvalidDefaults, d.SemanticWeight)
	}
	return nil
}

// Searcher provides hybrid keyword and vector search over named indexes.
type Searcher struct {
	index        index.Searcher
	embedder     ai.Embedder
	embedderName string
	defaults     Defaults
	monitor      SearchMonitor
	logger       *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// WithMonitor sets a monitor that observes every search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		s.monitor = monitor
		return nil
	}
}

// WithEmbedderName sets the index-side embedder name.
// Default is DefaultEmbedderName.
func WithEmbedderName(name string) Option {
	return func(s *Searcher) error {
		if name != "" {
			s.embedderName = name
		}
		return nil
	}
}

// WithDefaults sets query defaults and the TopK upper bound.
func WithDefaults(d Defaults) Option {
	return func(s *Searcher) error {
		if err := d.Validate(); err != nil {
			return err
		}
		s.defaults = d
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(idx index.Searcher, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		index:        idx,
		embedder:     embedder,
		embedderName: DefaultEmbedderName,
		defaults:     DefaultDefaults(),
		logger:       slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Defaults returns the configured query defaults.
func (s *Searcher) Defaults() Defaults {
	return s.defaults
}

// DefaultQuery builds a query for text from the configured defaults.
func (s *Searcher) DefaultQuery(text string) core.KnowledgeBaseQuery {
	return core.KnowledgeBaseQuery{
		QueryText:      text,
		KnowledgeBase:  s.defaults.KnowledgeBase,
		TopK:           s.defaults.TopK,
		SemanticWeight: s.defaults.SemanticWeight,
	}
}

// Search runs one hybrid search. ok is false when the query is invalid, the
// embedding fails or the index call fails; hits is empty in those cases.
func (s *Searcher) Search(ctx context.Context, q core.KnowledgeBaseQuery) ([]core.SearchHit, bool) {
	return s.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor runs Search and additionally reports to monitor.
// The monitor configured with WithMonitor is notified first.
func (s *Searcher) SearchWithMonitor(ctx context.Context, q core.KnowledgeBaseQuery, monitor SearchMonitor) ([]core.SearchHit, bool) {
	monitor = combine(s.monitor, monitor)

	start := time.Now()
	monitor.Start(q)
	hits, ok := s.search(ctx, q, monitor)
	monitor.Finish(q, hits, ok, time.Since(start))

	return hits, ok
}

func (s *Searcher) search(ctx context.Context, q core.KnowledgeBaseQuery, monitor SearchMonitor) ([]core.SearchHit, bool) {
	if err := q.Validate(s.defaults.MaxTopK); err != nil {
		s.logger.Warn("rejecting invalid query", "err", err)
		return nil, false
	}

	// 1. Embed the query text
	vector, err := s.embedder.EmbedText(ctx, q.QueryText)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", q.QueryText, "err", err)
		monitor.EmbeddingFailed(err)
		return nil, false
	}
	monitor.AfterEmbedding(len(vector))

	// 2. One combined request; the index expects the complementary ratio
	hits, err := s.index.Search(ctx, q.KnowledgeBase, index.Request{
		Query:         q.QueryText,
		Vector:        vector,
		SemanticRatio: 1 - q.SemanticWeight,
		Embedder:      s.embedderName,
		Limit:         q.TopK,
	})
	if err != nil {
		s.logger.Error("error querying index", "index", q.KnowledgeBase, "err", err)
		return nil, false
	}

	s.logger.Debug("search complete", "index", q.KnowledgeBase, "hits", len(hits))
	return hits, true
}

// ListIndexes returns available index identifiers, or an empty list when the
// index service cannot be reached.
func (s *Searcher) ListIndexes(ctx context.Context) []string {
	uids, err := s.index.ListIndexes(ctx)
	if err != nil {
		s.logger.Error("error listing indexes", "err", err)
		return []string{}
	}
	return uids
}
