// Package index defines the contract with the external search index.
//
// The index owns ranking and fusion of keyword and vector scores; callers
// only shape one request and read hits back in index order.
package index

import (
	"context"

	"github.com/poiesic/kbsearch/core"
)

// Request is one hybrid search against a single index.
type Request struct {
	Query  string
	Vector []float32
	// SemanticRatio is the index-native ratio, sent as-is.
	SemanticRatio float64
	// Embedder names the index-side embedder configuration.
	Embedder string
	Limit    int
}

// Searcher is the index service as seen by the search engine.
// Implementations must be thread-safe for concurrent use.
type Searcher interface {
	// Search runs req against the index named uid and returns hits in
	// index order.
	Search(ctx context.Context, uid string, req Request) ([]core.SearchHit, error)

	// ListIndexes returns the identifiers of all indexes.
	ListIndexes(ctx context.Context) ([]string, error)
}
