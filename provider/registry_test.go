package provider

import (
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/ai/mock"
	"github.com/poiesic/kbsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// namedModel lets tests tell bindings apart.
type namedModel struct {
	*mock.MockChatModel
	key string
}

func recordingFactory(built *[]string) ModelFactory {
	return func(c core.ProviderConfig) (ai.ChatModel, error) {
		*built = append(*built, c.Key)
		return &namedModel{MockChatModel: mock.NewMockChatModel(), key: c.Key}, nil
	}
}

func testBlocks() map[string]core.ProviderConfig {
	return map[string]core.ProviderConfig{
		"openai":      {BaseURL: "https://api.openai.com/v1", APIKey: "sk-1", Model: "gpt-4o-mini"},
		"deepseek":    {BaseURL: "https://api.deepseek.com", APIKey: "sk-2", Model: "deepseek-chat"},
		"qwen":        {BaseURL: "https://dashscope.example/v1", APIKey: "", Model: "qwen-max"},
		"embedding":   {BaseURL: "http://localhost:8080", APIKey: "emb-key", Model: "bge-m3"},
		"meilisearch": {BaseURL: "http://localhost:7700", APIKey: "meili-key"},
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("only allow-listed blocks with keys", func(t *testing.T) {
		var built []string
		r, err := NewRegistry(testBlocks(), "", WithModelFactory(recordingFactory(&built)))
		require.NoError(t, err)

		assert.Equal(t, []string{"deepseek", "openai"}, r.ListAvailable())
	})

	t.Run("first sorted key is activated without default", func(t *testing.T) {
		var built []string
		r, err := NewRegistry(testBlocks(), "", WithModelFactory(recordingFactory(&built)))
		require.NoError(t, err)

		assert.Equal(t, "deepseek", r.ActiveKey())
		assert.Equal(t, []string{"deepseek"}, built)
	})

	t.Run("default key is activated", func(t *testing.T) {
		var built []string
		r, err := NewRegistry(testBlocks(), "openai", WithModelFactory(recordingFactory(&built)))
		require.NoError(t, err)

		cfg, err := r.Current()
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Key)
		assert.Equal(t, "gpt-4o-mini", cfg.Model)
	})

	t.Run("default key without credential", func(t *testing.T) {
		var built []string
		_, err := NewRegistry(testBlocks(), "qwen", WithModelFactory(recordingFactory(&built)))
		assert.ErrorIs(t, err, core.ErrUnknownProvider)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("no providers", func(t *testing.T) {
		r, err := NewRegistry(nil, "")
		require.NoError(t, err)

		assert.Empty(t, r.ListAvailable())
		assert.Equal(t, "", r.ActiveKey())

		_, err = r.Current()
		assert.ErrorIs(t, err, core.ErrNoProviderConfigured)
		_, err = r.ChatModel()
		assert.ErrorIs(t, err, core.ErrNoProviderConfigured)
	})

	t.Run("default factory builds openai-compatible model", func(t *testing.T) {
		r, err := NewRegistry(testBlocks(), "openai")
		require.NoError(t, err)

		m, err := r.ChatModel()
		require.NoError(t, err)
		assert.NotNil(t, m)
	})
}

func TestSetActive(t *testing.T) {
	t.Run("swaps binding", func(t *testing.T) {
		var built []string
		r, err := NewRegistry(testBlocks(), "deepseek", WithModelFactory(recordingFactory(&built)))
		require.NoError(t, err)

		require.NoError(t, r.SetActive("openai"))

		cfg, err := r.Current()
		require.NoError(t, err)
		m, err := r.ChatModel()
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Key)
		assert.Equal(t, "openai", m.(*namedModel).key)
	})

	t.Run("unknown key keeps previous binding", func(t *testing.T) {
		var built []string
		r, err := NewRegistry(testBlocks(), "deepseek", WithModelFactory(recordingFactory(&built)))
		require.NoError(t, err)

		err = r.SetActive("embedding")
		assert.ErrorIs(t, err, core.ErrUnknownProvider)
		assert.Equal(t, "deepseek", r.ActiveKey())
	})

	t.Run("factory failure keeps previous binding", func(t *testing.T) {
		boom := errors.New("boom")
		factory := func(c core.ProviderConfig) (ai.ChatModel, error) {
			if c.Key == "openai" {
				return nil, boom
			}
			return &namedModel{MockChatModel: mock.NewMockChatModel(), key: c.Key}, nil
		}
		r, err := NewRegistry(testBlocks(), "deepseek", WithModelFactory(factory))
		require.NoError(t, err)

		err = r.SetActive("openai")
		assert.ErrorIs(t, err, boom)

		m, err := r.ChatModel()
		require.NoError(t, err)
		assert.Equal(t, "deepseek", m.(*namedModel).key)
		assert.Equal(t, "deepseek", r.ActiveKey())
	})

	t.Run("config and model always agree under concurrent swaps", func(t *testing.T) {
		factory := func(c core.ProviderConfig) (ai.ChatModel, error) {
			return &namedModel{MockChatModel: mock.NewMockChatModel(), key: c.Key}, nil
		}
		r, err := NewRegistry(testBlocks(), "deepseek", WithModelFactory(factory))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := "openai"
				if i%2 == 0 {
					key = "deepseek"
				}
				for j := 0; j < 50; j++ {
					assert.NoError(t, r.SetActive(key))
				}
			}(i)
		}
		for i := 0; i < 200; i++ {
			b := r.active.Load()
			assert.Equal(t, b.config.Key, b.model.(*namedModel).key)
		}
		wg.Wait()
	})
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown("openai"))
	assert.True(t, IsKnown("ollama"))
	assert.False(t, IsKnown("embedding"))
	assert.False(t, IsKnown("meilisearch"))
	assert.False(t, IsKnown(""))
}

func TestRegistryIsModelSource(t *testing.T) {
	var _ ai.ModelSource = (*Registry)(nil)
}
