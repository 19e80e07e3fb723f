package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/ai/mock"
	"github.com/poiesic/kbsearch/chat"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /embed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	})
	mux.HandleFunc("POST /indexes/reports/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits":[{"_sha256":"h1","title":"Battery outlook","author":"A. Analyst","content":"Lithium demand grows."}]}`))
	})
	mux.HandleFunc("GET /indexes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"uid":"reports"},{"uid":"news"}]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeConfig(t *testing.T, url string) string {
	t.Helper()
	body := fmt.Sprintf(`{
  "embedding": {"url": "%[1]s/embed", "api_key": "emb", "model": "bge-m3"},
  "meilisearch": {"url": "%[1]s", "api_key": "meili"},
  "openai": {"base_url": "%[1]s/v1", "api_key": "sk-1", "model": "gpt-4o-mini"},
  "deepseek": {"base_url": "%[1]s/v1", "api_key": "sk-2", "model": "deepseek-chat"},
  "default_provider": "openai",
  "search": {"default_knowledge_base": "reports", "default_top_k": 5, "max_top_k": 20}
}`, url)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newCLI()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"kbsearch"}, args...))
	return out.String(), err
}

func TestGlobalFlags(t *testing.T) {
	t.Run("invalid log level", func(t *testing.T) {
		_, err := run(t, "", "--log-level", "loud", "indexes")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := run(t, "", "--config", filepath.Join(t.TempDir(), "absent.json"), "indexes")
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})
}

func TestSearchCommand(t *testing.T) {
	server := newBackend(t)
	cfg := writeConfig(t, server.URL)

	t.Run("query is required", func(t *testing.T) {
		_, err := run(t, "", "--config", cfg, "search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query text is required")
	})

	t.Run("prints hits without enrichment", func(t *testing.T) {
		out, err := run(t, "", "--config", cfg, "search", "--no-enrich", "lithium", "demand")
		require.NoError(t, err)
		assert.Contains(t, out, "Found 1 results in")
		assert.Contains(t, out, "1. Battery outlook")
		assert.Contains(t, out, "Author: A. Analyst")
		assert.NotContains(t, out, "Summary:")
	})

	t.Run("rejects invalid overrides", func(t *testing.T) {
		_, err := run(t, "", "--config", cfg, "search", "--top-k", "500", "lithium")
		assert.ErrorIs(t, err, core.ErrInvalidQuery)

		_, err = run(t, "", "--config", cfg, "search", "--semantic-ratio", "1.5", "lithium")
		assert.ErrorIs(t, err, core.ErrInvalidQuery)
	})
}

func TestIndexesCommand(t *testing.T) {
	server := newBackend(t)
	out, err := run(t, "", "--config", writeConfig(t, server.URL), "indexes")
	require.NoError(t, err)
	assert.Equal(t, "reports\nnews\n", out)
}

func TestProvidersCommand(t *testing.T) {
	server := newBackend(t)
	cfg := writeConfig(t, server.URL)

	t.Run("lists with active marker", func(t *testing.T) {
		out, err := run(t, "", "--config", cfg, "providers")
		require.NoError(t, err)
		assert.Equal(t, "  deepseek\n* openai\n", out)
	})

	t.Run("use switches", func(t *testing.T) {
		out, err := run(t, "", "--config", cfg, "providers", "--use", "deepseek")
		require.NoError(t, err)
		assert.Equal(t, "* deepseek\n  openai\n", out)
	})

	t.Run("use unknown", func(t *testing.T) {
		_, err := run(t, "", "--config", cfg, "providers", "--use", "embedding")
		assert.ErrorIs(t, err, core.ErrUnknownProvider)
	})
}

func TestChatCommandSessions(t *testing.T) {
	server := newBackend(t)
	out, err := run(t, "/new\n/new research\n/sessions\n/quit\n", "--config", writeConfig(t, server.URL), "chat")
	require.NoError(t, err)
	assert.Contains(t, out, `Created session "Chat 1"`)
	assert.Contains(t, out, `Created session "research"`)
	assert.Contains(t, out, "* research (0 messages)")
	assert.Contains(t, out, "  default (0 messages)")
}

func newTestREPL(t *testing.T, model *mock.MockChatModel) (*repl, *bytes.Buffer) {
	t.Helper()
	factory := func(core.ProviderConfig) (ai.ChatModel, error) { return model, nil }
	registry, err := provider.NewRegistry(map[string]core.ProviderConfig{
		"openai": {APIKey: "sk-1"},
		"qwen":   {APIKey: "sk-2"},
	}, "openai", provider.WithModelFactory(factory))
	require.NoError(t, err)

	orchestrator, err := chat.NewOrchestrator(nil, registry, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	return &repl{chat: orchestrator, providers: registry, template: chat.DefaultSessionTemplate, out: &out}, &out
}

func TestREPL(t *testing.T) {
	ctx := context.Background()

	t.Run("messages and regenerate", func(t *testing.T) {
		model := mock.NewMockChatModel()
		model.Reply = "4"
		r, out := newTestREPL(t, model)

		require.NoError(t, r.run(ctx, strings.NewReader("What is 2+2?\n/regen 1\n/history\n/quit\n")))
		assert.Equal(t, 2, model.CallCount())

		sess, err := r.chat.Session(core.DefaultSessionName)
		require.NoError(t, err)
		require.Len(t, sess.Messages, 2)
		assert.Contains(t, out.String(), "0 [")
		assert.Contains(t, out.String(), "user] What is 2+2?")
		assert.Contains(t, out.String(), "assistant] 4")
	})

	t.Run("web toggle without endpoint", func(t *testing.T) {
		r, out := newTestREPL(t, mock.NewMockChatModel())

		require.NoError(t, r.run(ctx, strings.NewReader("/web on\nhello\n")))
		assert.Contains(t, out.String(), "Web search: on")
		assert.Contains(t, out.String(), "(web search failed: web search is not configured)")
		assert.Contains(t, out.String(), "mock reply")
	})

	t.Run("session errors are printed", func(t *testing.T) {
		r, out := newTestREPL(t, mock.NewMockChatModel())

		require.NoError(t, r.run(ctx, strings.NewReader("/delete default\n/switch nowhere\n/regen x\n/regen 5\n/bogus\n/quit\n")))
		text := out.String()
		assert.Contains(t, text, "default session cannot be deleted")
		assert.Contains(t, text, "unknown session")
		assert.Contains(t, text, "usage: /regen <n>")
		assert.Contains(t, text, "invalid message index")
		assert.Contains(t, text, "unknown command /bogus")
	})

	t.Run("switch delete and clear", func(t *testing.T) {
		r, _ := newTestREPL(t, mock.NewMockChatModel())

		require.NoError(t, r.run(ctx, strings.NewReader("/new a\nhi\n/clear\n/switch default\n/delete a\n")))
		assert.Equal(t, core.DefaultSessionName, r.chat.ActiveSession())
		assert.Len(t, r.chat.ListSessions(), 1)
	})

	t.Run("provider switch", func(t *testing.T) {
		r, out := newTestREPL(t, mock.NewMockChatModel())

		require.NoError(t, r.run(ctx, strings.NewReader("/provider qwen\n/provider nope\n")))
		assert.Equal(t, "qwen", r.providers.ActiveKey())
		assert.Contains(t, out.String(), "* qwen")
		assert.Contains(t, out.String(), "unknown provider")
	})
}
