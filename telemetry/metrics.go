// Package telemetry exports search and chat activity as prometheus metrics.
package telemetry

import (
	"time"

	"github.com/poiesic/kbsearch/chat"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kbsearch"

// Metrics implements search.SearchMonitor and chat.Monitor.
type Metrics struct {
	Searches        *prometheus.CounterVec
	SearchDuration  prometheus.Histogram
	SearchHits      prometheus.Histogram
	EmbeddingErrors prometheus.Counter

	ChatTurns        *prometheus.CounterVec
	ChatTurnDuration *prometheus.HistogramVec
	WebSearches      *prometheus.CounterVec
}

var (
	_ search.SearchMonitor = (*Metrics)(nil)
	_ chat.Monitor         = (*Metrics)(nil)
)

// NewMetrics registers all collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Searches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Knowledge base searches by result.",
			},
			[]string{"knowledge_base", "result"},
		),
		SearchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Time spent embedding and querying the index.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		SearchHits: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_hits",
				Help:      "Hits returned per successful search.",
				Buckets:   []float64{0, 1, 5, 10, 20, 50},
			},
		),
		EmbeddingErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_errors_total",
				Help:      "Query embeddings that failed.",
			},
		),
		ChatTurns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_turns_total",
				Help:      "Chat turns by kind and result.",
			},
			[]string{"kind", "result"},
		),
		ChatTurnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "chat_turn_duration_seconds",
				Help:      "Time from turn start to reply, including web search.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"kind"},
		),
		WebSearches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "web_searches_total",
				Help:      "Web searches made during chat turns by result.",
			},
			[]string{"result"},
		),
	}
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) Start(core.KnowledgeBaseQuery) {}

func (m *Metrics) AfterEmbedding(int) {}

func (m *Metrics) EmbeddingFailed(error) {
	m.EmbeddingErrors.Inc()
}

func (m *Metrics) Finish(q core.KnowledgeBaseQuery, hits []core.SearchHit, ok bool, elapsed time.Duration) {
	m.Searches.WithLabelValues(q.KnowledgeBase, result(ok)).Inc()
	m.SearchDuration.Observe(elapsed.Seconds())
	if ok {
		m.SearchHits.Observe(float64(len(hits)))
	}
}

func (m *Metrics) TurnStarted(chat.TurnKind, string) {}

func (m *Metrics) TurnFinished(kind chat.TurnKind, meta core.SearchMeta, ok bool, elapsed time.Duration) {
	m.ChatTurns.WithLabelValues(string(kind), result(ok)).Inc()
	m.ChatTurnDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	switch {
	case meta.UsedWebSearch:
		m.WebSearches.WithLabelValues("success").Inc()
	case meta.SearchFailed:
		m.WebSearches.WithLabelValues("failure").Inc()
	}
}
