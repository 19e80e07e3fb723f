package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DefaultSessionName is the session that always exists and cannot be deleted.
const DefaultSessionName = "default"

// HitIDFromContent derives a deterministic identifier from hit content using
// BLAKE2b hashing. Used when the index does not supply an identifier.
func HitIDFromContent(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// KnowledgeBaseQuery describes one hybrid search request.
type KnowledgeBaseQuery struct {
	QueryText     string
	KnowledgeBase string // index identifier
	TopK          int
	// SemanticWeight is the caller-facing semantic ratio in [0, 1]. The index
	// receives 1 - SemanticWeight.
	SemanticWeight float64
}

// SearchHit is one document returned by the index, in index order.
type SearchHit struct {
	ID           string
	Title        string
	Author       string
	Organization string
	Industry     string
	PublishTime  string
	SourceURL    string
	Content      string
	Abstract     string
	PDFLink      string
	FileURL      string
}

// Text returns the body used for enrichment: Content, or Abstract when
// Content is empty.
func (h SearchHit) Text() string {
	if h.Content != "" {
		return h.Content
	}
	return h.Abstract
}

// EnrichedHit is a SearchHit plus generated summary and keywords.
// Enrichment is recomputed on every request.
type EnrichedHit struct {
	SearchHit
	Summary  string
	Keywords string
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SearchMeta records what web search did for one assistant reply.
type SearchMeta struct {
	UsedWebSearch bool
	SearchFailed  bool
	Query         string
	Error         string
}

// ChatMessage is a single turn in a session.
type ChatMessage struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
	// SearchMeta is non-nil on assistant messages.
	SearchMeta *SearchMeta
}

// ChatSession is a named, ordered conversation.
type ChatSession struct {
	Name     string
	Messages []ChatMessage
}

// Clone returns a deep copy of the session.
func (s *ChatSession) Clone() ChatSession {
	out := ChatSession{Name: s.Name, Messages: make([]ChatMessage, len(s.Messages))}
	for i, msg := range s.Messages {
		if msg.SearchMeta != nil {
			meta := *msg.SearchMeta
			msg.SearchMeta = &meta
		}
		out.Messages[i] = msg
	}
	return out
}

// ProviderConfig describes one chat-completion backend.
type ProviderConfig struct {
	Key     string
	BaseURL string
	APIKey  string
	Model   string
}
