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


// Package ai provides abstractions for the AI services used by kbsearch.
//
// Two capabilities are modelled:
//
//   - Embedder: turns text into vectors for the index's semantic half
//   - ChatModel: produces chat completions for enrichment and conversation
//
// ModelSource sits between callers and ChatModel. The provider registry is a
// ModelSource, so switching the active provider changes the model every
// caller sees on its next request without rewiring anything.
//
// # Implementation Packages
//
//   - ai/rest: Embedder for endpoints that accept {"texts": [...], "model": "..."}
//   - ai/openai: ChatModel for OpenAI-compatible chat-completion endpoints
//   - ai/mock: Test doubles for unit testing without external services
//
// # Constructor Return Type Pattern
//
// Production constructors return interface types (rest.NewEmbedder returns
// ai.Embedder, openai.NewChatModel returns ai.ChatModel). Mock constructors
// return concrete types so tests can inject behavior and count calls:
//
//	model := mock.NewMockChatModel()
//	model.CompleteFunc = func(ctx context.Context, msgs []ai.Message, opts ...ai.CompletionOption) (string, error) {
//	    return "", errors.New("boom")
//	}
//	_ = model.CallCount()
//
// # Usage Example
//
//	cfg := ai.NewEmbeddingConfig(ai.WithEmbeddingURL(url), ai.WithEmbeddingAPIKey(key))
//	embedder, err := rest.NewEmbedder(cfg)
//	if err != nil {
//	    return err
//	}
//	vector, err := embedder.EmbedText(ctx, "solid-state battery suppliers")
package ai
