package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in one request.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Role identifies the speaker of a completion message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a completion request.
type Message struct {
	Role    Role
	Content string
}

// ChatModel produces a completion for an ordered list of messages.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Complete returns the trimmed text of the first choice.
	Complete(ctx context.Context, messages []Message, opts ...CompletionOption) (string, error)
}

// ModelSource resolves the chat model to use for the next request.
// The provider registry implements it so that a provider switch is picked up
// by every caller on its next request.
type ModelSource interface {
	ChatModel() (ChatModel, error)
}

// Fixed returns a ModelSource that always yields m.
func Fixed(m ChatModel) ModelSource {
	return fixedSource{model: m}
}

type fixedSource struct {
	model ChatModel
}

func (f fixedSource) ChatModel() (ChatModel, error) {
	return f.model, nil
}

// CompletionOptions holds per-request sampling parameters.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

// CompletionOption is a functional option for a completion request.
type CompletionOption func(*CompletionOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CompletionOption {
	return func(o *CompletionOptions) {
		o.Temperature = t
	}
}

// WithMaxTokens caps the number of generated tokens.
func WithMaxTokens(n int) CompletionOption {
	return func(o *CompletionOptions) {
		o.MaxTokens = n
	}
}

// ApplyCompletionOptions folds opts over zero-valued options.
func ApplyCompletionOptions(opts ...CompletionOption) CompletionOptions {
	var o CompletionOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
