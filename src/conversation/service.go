package conversation

import (
	"context"
	"fmt"
	"sync"

	"artisty_assistant/src/model"
	"artisty_assistant/src/storage"

	"github.com/cloudwego/eino/schema"
)

// Service is the bounded per-session memory used by the assistant
type Service struct {
	store       storage.ConversationStore
	maxMessages int
	maxTokens   int
	locks       sessionLocks
}

func NewService(store storage.ConversationStore, config model.MemoryConfig) *Service {
	return &Service{
		store:       store,
		maxMessages: config.MaxMessages,
		maxTokens:   config.MaxTokens,
		locks:       sessionLocks{locks: make(map[string]*lockEntry)},
	}
}

// Lock serializes turns of one session. The returned function releases it.
func (s *Service) Lock(sessionID string) func() {
	return s.locks.lock(sessionID)
}

// History returns the windowed history injected into the reply prompt
func (s *Service) History(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	messages, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return Window(messages, s.maxMessages, s.maxTokens), nil
}

// Context renders the session history with the given strategy
func (s *Service) Context(ctx context.Context, sessionID string, strategy ContextStrategy) (string, error) {
	messages, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}
	return strategy.BuildContext(messages), nil
}

// SaveTurn appends the user message and the assistant reply as one write
func (s *Service) SaveTurn(ctx context.Context, sessionID, userMessage, reply string) error {
	err := s.store.Append(ctx, sessionID,
		schema.UserMessage(userMessage),
		schema.AssistantMessage(reply, nil),
	)
	if err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

// Recommend records artworks surfaced to the session
func (s *Service) Recommend(ctx context.Context, sessionID string, names []string) error {
	return s.store.AppendRecommended(ctx, sessionID, names)
}

// RecentRecommendations returns the last n recommended artworks, oldest first
func (s *Service) RecentRecommendations(ctx context.Context, sessionID string, n int) ([]string, error) {
	return s.store.Recommended(ctx, sessionID, n)
}

func (s *Service) Backend() string {
	return s.store.Backend()
}

// Ping checks that the backing store answers
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lockEntry{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
