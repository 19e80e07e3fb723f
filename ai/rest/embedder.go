package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/core"
	"github.com/tmc/langchaingo/embeddings"
)

type embedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// client speaks the embedding wire protocol. It satisfies
// embeddings.EmbedderClient so the langchaingo embedder can drive it.
type client struct {
	http   *resty.Client
	url    string
	model  string
	logger *slog.Logger
}

var _ embeddings.EmbedderClient = (*client)(nil)

// CreateEmbedding posts texts in a single request. A nil error guarantees one
// vector per input text.
func (c *client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(embedRequest{Texts: texts, Model: c.model}).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", core.ErrEmbedding, core.ErrTransport, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %w: status %d: %s",
			core.ErrEmbedding, core.ErrBackend, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var body embedResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: %w: decoding response: %w", core.ErrEmbedding, core.ErrBackend, err)
	}
	if len(body.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %w: got %d embeddings for %d texts",
			core.ErrEmbedding, core.ErrBackend, len(body.Data), len(texts))
	}

	vectors := make([][]float32, len(body.Data))
	for i, d := range body.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: %w: embedding %d is empty", core.ErrEmbedding, core.ErrBackend, i)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Embedder implements ai.Embedder against a REST embedding endpoint.
// Each call is a single attempt; failures are reported, never retried.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.EmbeddingConfig) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "rest-embedder")

	httpClient := resty.New().
		SetTimeout(config.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	if config.APIKey != "" {
		httpClient.SetAuthToken(config.APIKey)
	}

	c := &client{
		http:   httpClient,
		url:    config.URL,
		model:  config.Model,
		logger: logger,
	}

	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(c, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   logger,
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.EmbeddingConfig) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", core.ErrEmbedding)
	}

	e.logger.Debug("generating embedding for single text", "length", len(text))

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate embedding", "timeout", isTimeout(err), "err", err)
		return nil, err
	}
	return vector, nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
