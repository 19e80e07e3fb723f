// Package websearch queries an external web-search endpoint and renders
// its answer as prompt context.
//
// Search never returns an error: every failure becomes a Failure outcome
// so that a chat turn can continue without web context.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/poiesic/kbsearch/core"
)

// DefaultTimeout bounds a search when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrURLRequired is returned when the endpoint URL is missing.
var ErrURLRequired = fmt.Errorf("%w: web search url required", core.ErrConfiguration)

// Config holds the endpoint settings.
type Config struct {
	URL         string
	APIKey      string
	DefaultTool string
	Timeout     time.Duration
}

// Client performs web searches with a single attempt each.
type Client struct {
	http        *resty.Client
	url         string
	defaultTool string
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "websearch")
		return nil
	}
}

// NewClient creates a web search client.
func NewClient(config Config, opts ...Option) (*Client, error) {
	url := strings.TrimSpace(config.URL)
	if url == "" {
		return nil, ErrURLRequired
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	if config.APIKey != "" {
		httpClient.SetAuthToken(config.APIKey)
	}

	c := &Client{
		http:        httpClient,
		url:         url,
		defaultTool: config.DefaultTool,
		logger:      slog.Default().With("component", "websearch"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type searchRequest struct {
	Query string `json:"query"`
	Tools string `json:"tools"`
}

// Search posts query to the endpoint. An empty tool selects the configured
// default tool. Only status 200 counts as success.
func (c *Client) Search(ctx context.Context, query, tool string) Outcome {
	if tool == "" {
		tool = c.defaultTool
	}

	c.logger.Info("starting web search", "query", query, "tool", tool)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(searchRequest{Query: query, Tools: tool}).
		Post(c.url)
	if err != nil {
		if isTimeout(err) {
			c.logger.Error("web search timed out", "err", err)
			return Failure{Query: query, Kind: FailureTimeout, Reason: "search request timed out"}
		}
		c.logger.Error("web search request error", "err", err)
		return Failure{Query: query, Kind: FailureTransport, Reason: fmt.Sprintf("search request error: %v", err)}
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Error("web search failed", "status", resp.StatusCode())
		return Failure{
			Query:      query,
			Kind:       FailureStatus,
			Reason:     fmt.Sprintf("search request failed with status %d", resp.StatusCode()),
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	payload, err := decodePayload(resp.Body())
	if err != nil {
		c.logger.Error("unexpected web search response", "err", err)
		return Failure{Query: query, Kind: FailureOther, Reason: fmt.Sprintf("unexpected error during search: %v", err)}
	}

	c.logger.Info("web search succeeded", "status", resp.StatusCode())
	return Success{Query: query, Tool: tool, Result: payload}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
