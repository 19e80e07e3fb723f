package mock

import (
	"context"
	"sync"

	"github.com/poiesic/kbsearch/ai"
)

// Call records one Complete invocation.
type Call struct {
	Messages []ai.Message
	Options  ai.CompletionOptions
}

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields and is safe for
// concurrent use.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns Reply.
	CompleteFunc func(ctx context.Context, messages []ai.Message, opts ...ai.CompletionOption) (string, error)

	// Reply is the default answer.
	Reply string

	mu    sync.Mutex
	calls []Call
}

// NewMockChatModel creates a mock chat model that answers "mock reply".
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{Reply: "mock reply"}
}

// Complete records the call and returns the injected or default answer.
func (m *MockChatModel) Complete(ctx context.Context, messages []ai.Message, opts ...ai.CompletionOption) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Messages: append([]ai.Message(nil), messages...),
		Options:  ai.ApplyCompletionOptions(opts...),
	})
	fn := m.CompleteFunc
	reply := m.Reply
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, opts...)
	}
	return reply, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls.
func (m *MockChatModel) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// LastCall returns the most recent call, or false when none was made.
func (m *MockChatModel) LastCall() (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Call{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls and custom functions.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.CompleteFunc = nil
}
