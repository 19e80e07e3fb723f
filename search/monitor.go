package search

import (
	"time"

	"github.com/poiesic/kbsearch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and timing.
type SearchMonitor interface {
	Start(query core.KnowledgeBaseQuery)
	AfterEmbedding(dimensions int)
	EmbeddingFailed(err error)
	Finish(query core.KnowledgeBaseQuery, hits []core.SearchHit, ok bool, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.KnowledgeBaseQuery)                                               {}
func (n *noopMonitor) AfterEmbedding(_ int)                                                          {}
func (n *noopMonitor) EmbeddingFailed(_ error)                                                       {}
func (n *noopMonitor) Finish(_ core.KnowledgeBaseQuery, _ []core.SearchHit, _ bool, _ time.Duration) {}

// multiMonitor forwards every hook to each monitor in order.
type multiMonitor []SearchMonitor

func (m multiMonitor) Start(q core.KnowledgeBaseQuery) {
	for _, mon := range m {
		mon.Start(q)
	}
}

func (m multiMonitor) AfterEmbedding(dimensions int) {
	for _, mon := range m {
		mon.AfterEmbedding(dimensions)
	}
}

func (m multiMonitor) EmbeddingFailed(err error) {
	for _, mon := range m {
		mon.EmbeddingFailed(err)
	}
}

func (m multiMonitor) Finish(q core.KnowledgeBaseQuery, hits []core.SearchHit, ok bool, elapsed time.Duration) {
	for _, mon := range m {
		mon.Finish(q, hits, ok, elapsed)
	}
}

// combine drops nil monitors and returns a single monitor.
func combine(monitors ...SearchMonitor) SearchMonitor {
	out := make(multiMonitor, 0, len(monitors))
	for _, m := range monitors {
		if m != nil {
			out = append(out, m)
		}
	}
	switch len(out) {
	case 0:
		return &noopMonitor{}
	case 1:
		return out[0]
	default:
		return out
	}
}
