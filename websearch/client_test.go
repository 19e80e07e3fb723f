package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/kbsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{URL: server.URL, APIKey: "ws-key", DefaultTool: "quark_search", Timeout: timeout})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		_, err := NewClient(Config{})
		assert.ErrorIs(t, err, ErrURLRequired)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		c, err := NewClient(Config{URL: "http://localhost:9"}, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, c)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("posts query and default tool", func(t *testing.T) {
		var got searchRequest
		var auth string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{"answer":"42"}`))
		}, time.Second)

		outcome := c.Search(ctx, "meaning of life", "")
		require.True(t, outcome.OK())

		success := outcome.(Success)
		assert.Equal(t, "meaning of life", success.Query)
		assert.Equal(t, "quark_search", success.Tool)
		assert.Equal(t, PayloadObject, success.Result.Kind)
		assert.Equal(t, "42", success.Result.Object["answer"])
		assert.Equal(t, searchRequest{Query: "meaning of life", Tools: "quark_search"}, got)
		assert.Equal(t, "Bearer ws-key", auth)
	})

	t.Run("explicit tool overrides default", func(t *testing.T) {
		var got searchRequest
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&got)
			w.Write([]byte(`"plain"`))
		}, time.Second)

		outcome := c.Search(ctx, "q", "bing")
		require.True(t, outcome.OK())
		assert.Equal(t, "bing", got.Tools)
		assert.Equal(t, Payload{Kind: PayloadText, Text: "plain"}, outcome.(Success).Result)
	})

	t.Run("non-200 status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"created":true}`))
		}, time.Second)

		outcome := c.Search(ctx, "q", "")
		require.False(t, outcome.OK())
		failure := outcome.(Failure)
		assert.Equal(t, FailureStatus, failure.Kind)
		assert.Equal(t, http.StatusCreated, failure.StatusCode)
		assert.Equal(t, `{"created":true}`, failure.Body)
		assert.Contains(t, failure.Reason, "201")
	})

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}, time.Second)

		failure := c.Search(ctx, "q", "").(Failure)
		assert.Equal(t, FailureStatus, failure.Kind)
		assert.Equal(t, "q", failure.Query)
		assert.Equal(t, "search request failed with status 502", failure.Reason)
	})

	t.Run("timeout", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}, 50*time.Millisecond)

		failure := c.Search(ctx, "q", "").(Failure)
		assert.Equal(t, FailureTimeout, failure.Kind)
		assert.Equal(t, "search request timed out", failure.Reason)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		c, err := NewClient(Config{URL: url, Timeout: time.Second})
		require.NoError(t, err)

		failure := c.Search(ctx, "q", "").(Failure)
		assert.Equal(t, FailureTransport, failure.Kind)
		assert.Contains(t, failure.Reason, "search request error")
	})

	t.Run("body that is not json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		}, time.Second)

		failure := c.Search(ctx, "q", "").(Failure)
		assert.Equal(t, FailureOther, failure.Kind)
	})
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind PayloadKind
	}{
		{"string", `"hello"`, PayloadText},
		{"object", `{"a":1}`, PayloadObject},
		{"list", `[1,2]`, PayloadList},
		{"number", `3.14`, PayloadOther},
		{"bool", `true`, PayloadOther},
		{"null", `null`, PayloadOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := decodePayload([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind)
		})
	}

	t.Run("trailing data", func(t *testing.T) {
		_, err := decodePayload([]byte(`{} {}`))
		assert.Error(t, err)
	})
}
