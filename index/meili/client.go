// Package meili implements index.Searcher against the Meilisearch HTTP API.
package meili

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/index"
)

// DefaultEmbedder is the index-side embedder name used for hybrid search.
const DefaultEmbedder = "bge_m3"

// ErrURLRequired is returned when the index URL is missing.
var ErrURLRequired = fmt.Errorf("%w: index url required", core.ErrConfiguration)

// Config holds the connection settings for one Meilisearch instance.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client talks to Meilisearch over HTTP.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

var _ index.Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "meili")
		return nil
	}
}

// NewClient creates a Meilisearch client.
func NewClient(config Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(config.URL), "/")
	if base == "" {
		return nil, ErrURLRequired
	}

	httpClient := resty.New().
		SetBaseURL(base).
		SetTimeout(config.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	if config.APIKey != "" {
		httpClient.SetAuthToken(config.APIKey)
	}

	c := &Client{
		http:   httpClient,
		logger: slog.Default().With("component", "meili"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type hybrid struct {
	SemanticRatio float64 `json:"semanticRatio"`
	Embedder      string  `json:"embedder"`
}

type searchRequest struct {
	Q      string    `json:"q"`
	Vector []float32 `json:"vector,omitempty"`
	Hybrid hybrid    `json:"hybrid"`
	Limit  int       `json:"limit"`
}

type searchResponse struct {
	Hits []map[string]any `json:"hits"`
}

type indexesResponse struct {
	Results []struct {
		UID string `json:"uid"`
	} `json:"results"`
}

// Search posts one hybrid query to /indexes/{uid}/search.
func (c *Client) Search(ctx context.Context, uid string, req index.Request) ([]core.SearchHit, error) {
	embedder := req.Embedder
	if embedder == "" {
		embedder = DefaultEmbedder
	}

	body := searchRequest{
		Q:      req.Query,
		Vector: req.Vector,
		Hybrid: hybrid{SemanticRatio: req.SemanticRatio, Embedder: embedder},
		Limit:  req.Limit,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/indexes/" + url.PathEscape(uid) + "/search")
	if err != nil {
		return nil, fmt.Errorf("%w: meilisearch search: %w", core.ErrTransport, err)
	}
	if !resp.IsSuccess() {
		return nil, statusError("search", resp)
	}

	var decoded searchResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("%w: meilisearch search: decoding response: %w", core.ErrBackend, err)
	}

	hits := make([]core.SearchHit, 0, len(decoded.Hits))
	for _, raw := range decoded.Hits {
		hits = append(hits, hitFromDocument(raw))
	}
	c.logger.Debug("search complete", "index", uid, "hits", len(hits))
	return hits, nil
}

// ListIndexes returns index uids in the order Meilisearch reports them.
func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", "1000").
		Get("/indexes")
	if err != nil {
		return nil, fmt.Errorf("%w: meilisearch indexes: %w", core.ErrTransport, err)
	}
	if !resp.IsSuccess() {
		return nil, statusError("indexes", resp)
	}

	var decoded indexesResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("%w: meilisearch indexes: decoding response: %w", core.ErrBackend, err)
	}

	uids := make([]string, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		uids = append(uids, r.UID)
	}
	return uids, nil
}

func statusError(op string, resp *resty.Response) error {
	return fmt.Errorf("%w: meilisearch %s: status %d: %s",
		core.ErrBackend, op, resp.StatusCode(), strings.TrimSpace(resp.String()))
}

// hitFromDocument maps a raw index document onto SearchHit. Missing fields
// stay empty.
func hitFromDocument(doc map[string]any) core.SearchHit {
	hit := core.SearchHit{
		ID:           field(doc, "_sha256", "file_sha256", "id"),
		Title:        field(doc, "title"),
		Author:       field(doc, "author"),
		Organization: field(doc, "organization"),
		Industry:     field(doc, "industry"),
		PublishTime:  field(doc, "publish_time"),
		SourceURL:    field(doc, "source"),
		Content:      field(doc, "content"),
		Abstract:     field(doc, "abstract"),
		PDFLink:      field(doc, "pdf_link"),
		FileURL:      field(doc, "file_url"),
	}
	if hit.ID == "" {
		hit.ID = core.HitIDFromContent(hit.Title + "\x00" + hit.Text())
	}
	return hit
}

// field returns the first non-empty value among keys, rendered as a string.
func field(doc map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := doc[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch tv := v.(type) {
		case string:
			s = tv
		case float64:
			s = strconv.FormatFloat(tv, 'f', -1, 64)
		default:
			b, err := json.Marshal(tv)
			if err != nil {
				continue
			}
			s = string(b)
		}
		if s != "" {
			return s
		}
	}
	return ""
}
