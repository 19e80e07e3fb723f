// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyCompletion is returned when the backend answers without choices.
var ErrEmptyCompletion = fmt.Errorf("%w: completion has no choices", core.ErrBackend)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
type ChatModel struct {
	client llms.Model
	model  string
	logger *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
func newChatModel(config core.ProviderConfig) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}
	if config.Model != "" {
		opts = append(opts, openai.WithModel(config.Model))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrConfiguration, config.Key, err)
	}

	return &ChatModel{
		client: client,
		model:  config.Model,
		logger: slog.Default().With("component", "openai-chat", "provider", config.Key),
	}, nil
}

// NewChatModel creates a chat model for one provider block.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config core.ProviderConfig) (ai.ChatModel, error) {
	return newChatModel(config)
}

// Complete sends messages in order and returns the trimmed first choice.
func (m *ChatModel) Complete(ctx context.Context, messages []ai.Message, opts ...ai.CompletionOption) (string, error) {
	o := ai.ApplyCompletionOptions(opts...)

	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(messageType(msg.Role), msg.Content))
	}

	callOpts := []llms.CallOption{llms.WithTemperature(o.Temperature)}
	if o.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(o.MaxTokens))
	}

	m.logger.Debug("requesting completion", "messages", len(messages), "temperature", o.Temperature, "maxTokens", o.MaxTokens)

	response, err := m.client.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		m.logger.Error("failed to generate content", "err", err)
		if isTransport(err) {
			return "", fmt.Errorf("%w: %w", core.ErrTransport, err)
		}
		return "", fmt.Errorf("%w: %w", core.ErrBackend, err)
	}

	if len(response.Choices) < 1 {
		m.logger.Debug("no choices returned from model")
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}

func messageType(role ai.Role) llms.ChatMessageType {
	switch role {
	case ai.RoleSystem:
		return llms.ChatMessageTypeSystem
	case ai.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
