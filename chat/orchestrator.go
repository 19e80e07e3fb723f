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


package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/kbsearch/ai"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/websearch"
)

const (
	// MaxHistory caps how many prior messages are sent with a turn.
	MaxHistory = 20

	temperature = 0.7
	maxTokens   = 1500

	// DefaultLanguage is the language replies are requested in.
	DefaultLanguage = "English"

	errWebSearchNotConfigured = "web search is not configured"
)

const systemPromptTemplate = "You are a helpful AI assistant. Answer the user's questions in %s and provide accurate, useful information."

const contextPromptTemplate = `Answer the user's question based on the following web search results.

Search results:
%s

User question: %s

Answer from the search results. If they are not sufficient, combine them with your own knowledge to give the best answer. Keep the answer accurate, concise and useful.`

const apologyTemplate = "Sorry, an error occurred while generating the answer: %v"

// ErrModelSourceRequired is returned when no model source is provided.
var ErrModelSourceRequired = errors.New("model source required")

// WebSearcher is the part of websearch.Client the orchestrator needs.
type WebSearcher interface {
	Search(ctx context.Context, query, tool string) websearch.Outcome
}

// Orchestrator runs chat turns against the active provider.
//
// Each turn appends exactly one user message and exactly one assistant
// message. Backend failures become the assistant message text; only unknown
// sessions and overlapping turns on one session are returned as errors.
type Orchestrator struct {
	*Sessions

	models     ai.ModelSource
	web        WebSearcher
	webEnabled atomic.Bool
	language   string
	monitor    Monitor
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "chat")
		return nil
	}
}

// WithMonitor sets the turn monitor.
func WithMonitor(monitor Monitor) Option {
	return func(o *Orchestrator) error {
		if monitor == nil {
			monitor = noopMonitor{}
		}
		o.monitor = monitor
		return nil
	}
}

// WithLanguage sets the language replies are requested in.
// Default is DefaultLanguage.
func WithLanguage(language string) Option {
	return func(o *Orchestrator) error {
		if language != "" {
			o.language = language
		}
		return nil
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}

// WithWebSearch sets the initial web search toggle used by Regenerate.
func WithWebSearch(enabled bool) Option {
	return func(o *Orchestrator) error {
		o.webEnabled.Store(enabled)
		return nil
	}
}

// NewOrchestrator creates an orchestrator. A nil sessions registry gets a
// fresh one; a nil web searcher makes every web search fail softly.
func NewOrchestrator(sessions *Sessions, models ai.ModelSource, web WebSearcher, opts ...Option) (*Orchestrator, error) {
	if models == nil {
		return nil, ErrModelSourceRequired
	}
	if sessions == nil {
		sessions = NewSessions()
	}

	o := &Orchestrator{
		Sessions: sessions,
		models:   models,
		web:      web,
		language: DefaultLanguage,
		monitor:  noopMonitor{},
		now:      time.Now,
		logger:   slog.Default().With("component", "chat"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// SetWebSearch sets the toggle Regenerate uses.
func (o *Orchestrator) SetWebSearch(enabled bool) {
	o.webEnabled.Store(enabled)
}

// WebSearchEnabled reports the current toggle.
func (o *Orchestrator) WebSearchEnabled() bool {
	return o.webEnabled.Load()
}

// SendMessage appends text as a user message, generates a reply and appends
// it. The reply is returned even when generation failed.
func (o *Orchestrator) SendMessage(ctx context.Context, session, text string, useWebSearch bool) (core.ChatMessage, error) {
	user := core.ChatMessage{
		ID:        uuid.NewString(),
		Role:      core.RoleUser,
		Content:   text,
		CreatedAt: o.now(),
	}
	history, err := o.beginTurn(session, user, MaxHistory)
	if err != nil {
		return core.ChatMessage{}, err
	}

	reply := o.reply(ctx, TurnSend, session, text, history, useWebSearch)
	o.endTurn(session, func(s *core.ChatSession) {
		s.Messages = append(s.Messages, reply)
	})
	return reply, nil
}

// Regenerate replaces the assistant message at index with a fresh reply to
// the user message before it, using the current web search toggle. Messages
// after index are left as they are.
func (o *Orchestrator) Regenerate(ctx context.Context, session string, index int) (core.ChatMessage, error) {
	text, history, err := o.beginRegenerate(session, index, MaxHistory)
	if err != nil {
		return core.ChatMessage{}, err
	}

	reply := o.reply(ctx, TurnRegenerate, session, text, history, o.WebSearchEnabled())
	o.endTurn(session, func(s *core.ChatSession) {
		if index < len(s.Messages) {
			s.Messages[index] = reply
		}
	})
	return reply, nil
}

func (o *Orchestrator) reply(ctx context.Context, kind TurnKind, session, text string, history []core.ChatMessage, useWebSearch bool) core.ChatMessage {
	start := time.Now()
	o.monitor.TurnStarted(kind, session)

	meta := &core.SearchMeta{}
	var searchContext string
	if useWebSearch {
		searchContext = o.searchWeb(ctx, text, meta)
	}

	prompt := text
	if searchContext != "" {
		prompt = fmt.Sprintf(contextPromptTemplate, searchContext, text)
	}

	content, err := o.complete(ctx, buildMessages(fmt.Sprintf(systemPromptTemplate, o.language), history, prompt))
	if err != nil {
		o.logger.Error("failed to generate reply", "session", session, "err", err)
		content = fmt.Sprintf(apologyTemplate, err)
	}

	o.monitor.TurnFinished(kind, *meta, err == nil, time.Since(start))
	return core.ChatMessage{
		ID:         uuid.NewString(),
		Role:       core.RoleAssistant,
		Content:    content,
		CreatedAt:  o.now(),
		SearchMeta: meta,
	}
}

// searchWeb fills meta and returns formatted results, or "" on failure.
func (o *Orchestrator) searchWeb(ctx context.Context, query string, meta *core.SearchMeta) string {
	meta.Query = query

	var outcome websearch.Outcome
	if o.web == nil {
		outcome = websearch.Failure{Query: query, Kind: websearch.FailureOther, Reason: errWebSearchNotConfigured}
	} else {
		outcome = o.web.Search(ctx, query, "")
	}

	if failure, ok := outcome.(websearch.Failure); ok {
		o.logger.Warn("web search failed, answering without it", "reason", failure.Reason)
		meta.SearchFailed = true
		meta.Error = failure.Reason
		return ""
	}
	meta.UsedWebSearch = true
	return websearch.FormatResults(outcome)
}

func (o *Orchestrator) complete(ctx context.Context, messages []ai.Message) (string, error) {
	model, err := o.models.ChatModel()
	if err != nil {
		return "", err
	}
	return model.Complete(ctx, messages, ai.WithTemperature(temperature), ai.WithMaxTokens(maxTokens))
}

func buildMessages(system string, history []core.ChatMessage, prompt string) []ai.Message {
	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: system})
	for _, msg := range history {
		switch msg.Role {
		case core.RoleUser:
			messages = append(messages, ai.Message{Role: ai.RoleUser, Content: msg.Content})
		case core.RoleAssistant:
			messages = append(messages, ai.Message{Role: ai.RoleAssistant, Content: msg.Content})
		}
	}
	return append(messages, ai.Message{Role: ai.RoleUser, Content: prompt})
}
