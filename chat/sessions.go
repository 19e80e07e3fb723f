package chat

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/kbsearch/core"
)

// DefaultSessionTemplate names automatically created sessions.
const DefaultSessionTemplate = "Chat %d"

// SessionSummary describes one session for listing.
type SessionSummary struct {
	Name     string
	Messages int
	Active   bool
}

// Sessions holds named chat histories and the active session name.
// The default session always exists and is never deleted.
type Sessions struct {
	mu         sync.Mutex
	order      []string
	sessions   map[string]*core.ChatSession
	generating map[string]bool
	active     string
}

// NewSessions returns a registry holding only the default session, which is
// active.
func NewSessions() *Sessions {
	return &Sessions{
		order:      []string{core.DefaultSessionName},
		sessions:   map[string]*core.ChatSession{core.DefaultSessionName: {Name: core.DefaultSessionName}},
		generating: make(map[string]bool),
		active:     core.DefaultSessionName,
	}
}

// CreateSession adds an empty session and makes it active.
func (s *Sessions) CreateSession(name string) error {
	if err := core.ValidateSessionName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[name]; exists {
		return fmt.Errorf("%w: %q", core.ErrDuplicateSession, name)
	}
	s.add(name)
	return nil
}

// CreateAutoSession creates a session named by template with the lowest
// unused n >= 1 and makes it active. An empty template uses
// DefaultSessionTemplate.
func (s *Sessions) CreateAutoSession(template string) (string, error) {
	if template == "" {
		template = DefaultSessionTemplate
	}
	if strings.Count(template, "%d") != 1 {
		return "", fmt.Errorf("%w: template %q needs exactly one %%d", core.ErrInvalidSessionName, template)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for n := 1; ; n++ {
		name := fmt.Sprintf(template, n)
		if _, exists := s.sessions[name]; !exists {
			s.add(name)
			return name, nil
		}
	}
}

// add must be called with mu held.
func (s *Sessions) add(name string) {
	s.sessions[name] = &core.ChatSession{Name: name}
	s.order = append(s.order, name)
	s.active = name
}

// DeleteSession removes a session. Deleting the active session makes the
// default session active.
func (s *Sessions) DeleteSession(name string) error {
	if name == core.DefaultSessionName {
		return core.ErrProtectedSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[name]; !exists {
		return fmt.Errorf("%w: %q", core.ErrUnknownSession, name)
	}
	if s.generating[name] {
		return fmt.Errorf("%w: %q", core.ErrGenerationInFlight, name)
	}

	delete(s.sessions, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	if s.active == name {
		s.active = core.DefaultSessionName
	}
	return nil
}

// SwitchActive makes an existing session active.
func (s *Sessions) SwitchActive(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[name]; !exists {
		return fmt.Errorf("%w: %q", core.ErrUnknownSession, name)
	}
	s.active = name
	return nil
}

// ClearSession drops all messages of a session but keeps the session.
func (s *Sessions) ClearSession(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[name]
	if !exists {
		return fmt.Errorf("%w: %q", core.ErrUnknownSession, name)
	}
	if s.generating[name] {
		return fmt.Errorf("%w: %q", core.ErrGenerationInFlight, name)
	}
	sess.Messages = nil
	return nil
}

// Session returns a copy of the named session.
func (s *Sessions) Session(name string) (core.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[name]
	if !exists {
		return core.ChatSession{}, fmt.Errorf("%w: %q", core.ErrUnknownSession, name)
	}
	return sess.Clone(), nil
}

// ListSessions returns all sessions in creation order.
func (s *Sessions) ListSessions() []SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SessionSummary, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, SessionSummary{
			Name:     name,
			Messages: len(s.sessions[name].Messages),
			Active:   name == s.active,
		})
	}
	return out
}

// ActiveSession returns the name of the active session.
func (s *Sessions) ActiveSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// beginTurn appends the user message, marks the session as generating and
// returns up to limit messages that preceded it.
func (s *Sessions) beginTurn(name string, user core.ChatMessage, limit int) ([]core.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockForTurn(name)
	if err != nil {
		return nil, err
	}
	history := recent(sess.Messages, limit)
	sess.Messages = append(sess.Messages, user)
	s.generating[name] = true
	return history, nil
}

// beginRegenerate checks that index addresses an assistant message right
// after a user message, marks the session as generating and returns that
// user text plus up to limit messages before it.
func (s *Sessions) beginRegenerate(name string, index, limit int) (string, []core.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockForTurn(name)
	if err != nil {
		return "", nil, err
	}
	msgs := sess.Messages
	if index < 1 || index >= len(msgs) ||
		msgs[index].Role != core.RoleAssistant || msgs[index-1].Role != core.RoleUser {
		return "", nil, fmt.Errorf("%w: %d", core.ErrInvalidMessageIndex, index)
	}

	s.generating[name] = true
	return msgs[index-1].Content, recent(msgs[:index-1], limit), nil
}

// lockForTurn must be called with mu held.
func (s *Sessions) lockForTurn(name string) (*core.ChatSession, error) {
	sess, exists := s.sessions[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSession, name)
	}
	if s.generating[name] {
		return nil, fmt.Errorf("%w: %q", core.ErrGenerationInFlight, name)
	}
	return sess, nil
}

// endTurn applies fn to the session and clears the generating mark.
func (s *Sessions) endTurn(name string, fn func(*core.ChatSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.generating, name)
	if sess, exists := s.sessions[name]; exists {
		fn(sess)
	}
}

func recent(msgs []core.ChatMessage, limit int) []core.ChatMessage {
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return slices.Clone(msgs)
}
