package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrConversationNotFound is returned by operations that require the
// conversation to already exist.
var ErrConversationNotFound = errors.New("conversation not found")

const DefaultTitle = "Untitled"

type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	MessageId string `json:"message_id"`
	Timestamp string `json:"timestamp"`
}

type Conversation struct {
	ConversationId string    `json:"conversation_id"`
	Title          string    `json:"title"`
	Messages       []Message `json:"messages"`
	Summary        string    `json:"summary"`
}

type SessionInfo struct {
	ConversationId string `json:"conversation_id"`
	Title          string `json:"title"`
	MessageCount   int    `json:"message_count"`
}

// Store is a file-backed multi-session message log. Every mutation rewrites
// the whole JSON document before returning, so a process crash never loses
// an acknowledged write. Reads hand out copies; callers never hold a
// reference into the store's own state.
type Store struct {
	path string

	mu            sync.Mutex
	conversations map[string]*Conversation
}

func NewStore(path string) (*Store, error) {
	s := &Store{
		path:          path,
		conversations: make(map[string]*Conversation),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load replaces the in-memory map from disk. A missing file is an empty store.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.conversations = make(map[string]*Conversation)
			return nil
		}
		return fmt.Errorf("failed to read conversation store: %w", err)
	}

	fresh := make(map[string]*Conversation)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fresh); err != nil {
			return fmt.Errorf("failed to parse conversation store: %w", err)
		}
	}
	s.conversations = fresh
	return nil
}

// flush writes the full store to a sibling temp file and renames it over the
// target, so readers never observe a half-written document.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.conversations, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode conversation store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace conversation store: %w", err)
	}
	return nil
}

func mintMessage(role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		MessageId: uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func cloneConversation(c *Conversation) Conversation {
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	return out
}

// GetState returns the conversation, creating it with an empty message list
// when it does not exist yet. Creation is flushed; a plain read is not.
func (s *Store) GetState(conversationId, title string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[conversationId]; ok {
		return cloneConversation(conv), nil
	}

	if title == "" {
		title = DefaultTitle
	}
	conv := &Conversation{
		ConversationId: conversationId,
		Title:          title,
		Messages:       []Message{},
	}
	s.conversations[conversationId] = conv
	if err := s.flush(); err != nil {
		delete(s.conversations, conversationId)
		return Conversation{}, err
	}
	return cloneConversation(conv), nil
}

// UpdateState replaces the stored conversation wholesale. Messages lacking an
// id or timestamp are normalized by minting one, which migrates entries
// written before those fields existed.
func (s *Store) UpdateState(conversationId string, conv Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv.ConversationId = conversationId
	messages := append([]Message(nil), conv.Messages...)
	for i := range messages {
		if messages[i].MessageId == "" {
			messages[i].MessageId = uuid.NewString()
		}
		if messages[i].Timestamp == "" {
			messages[i].Timestamp = time.Now().UTC().Format(time.RFC3339)
		}
	}
	conv.Messages = messages

	s.conversations[conversationId] = &conv
	return s.flush()
}

// AddMessage appends a freshly minted message. It refuses to create the
// conversation implicitly: an append presumes GetState already ran.
func (s *Store) AddMessage(conversationId, role, content string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationId]
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationId)
	}

	msg := mintMessage(role, content)
	conv.Messages = append(conv.Messages, msg)
	if err := s.flush(); err != nil {
		conv.Messages = conv.Messages[:len(conv.Messages)-1]
		return Message{}, err
	}
	return msg, nil
}

// ClearMessages empties the log but keeps title and summary. Reports whether
// the conversation existed.
func (s *Store) ClearMessages(conversationId string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationId]
	if !ok {
		return false, nil
	}
	conv.Messages = []Message{}
	return true, s.flush()
}

// DeleteConversation removes the conversation entirely. The store has no
// notion of a protected default; that policy lives with the caller.
func (s *Store) DeleteConversation(conversationId string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationId]; !ok {
		return false, nil
	}
	delete(s.conversations, conversationId)
	return true, s.flush()
}

func (s *Store) ListSessions() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]SessionInfo, 0, len(s.conversations))
	for id, conv := range s.conversations {
		sessions = append(sessions, SessionInfo{
			ConversationId: id,
			Title:          conv.Title,
			MessageCount:   len(conv.Messages),
		})
	}
	return sessions
}

// GetMessages re-reads the backing file first, so another process-local store
// instance's writes are visible at the cost of one disk read per call.
func (s *Store) GetMessages(conversationId string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	conv, ok := s.conversations[conversationId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationId)
	}
	return append([]Message(nil), conv.Messages...), nil
}

// FindByTitle returns the id of the first conversation with the given title.
func (s *Store) FindByTitle(title string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, conv := range s.conversations {
		if conv.Title == title {
			return id, true
		}
	}
	return "", false
}
