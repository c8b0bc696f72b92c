package storage

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
)

type memorySession struct {
	messages    []*schema.Message
	recommended []string
	updatedAt   time.Time
}

// MemoryStore is the in-process store used when no Redis URL is configured
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	limits   Limits
	now      func() time.Time
}

func NewMemoryStore(limits Limits) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		limits:   limits.withDefaults(),
		now:      time.Now,
	}
}

// session returns the live session, dropping it first when it has expired. Callers hold mu.
func (m *MemoryStore) session(sessionID string, create bool) *memorySession {
	s, ok := m.sessions[sessionID]
	if ok && m.now().Sub(s.updatedAt) > m.limits.TTL {
		delete(m.sessions, sessionID)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		s = &memorySession{}
		m.sessions[sessionID] = s
	}
	return s
}

func (m *MemoryStore) Append(ctx context.Context, sessionID string, messages ...*schema.Message) error {
	if len(messages) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session(sessionID, true)
	s.messages = tail(append(s.messages, messages...), m.limits.MaxMessages)
	s.updatedAt = m.now()
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session(sessionID, false)
	if s == nil {
		return nil, nil
	}
	s.updatedAt = m.now()

	out := make([]*schema.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (m *MemoryStore) AppendRecommended(ctx context.Context, sessionID string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session(sessionID, true)
	seen := make(map[string]bool, len(s.recommended))
	for _, name := range s.recommended {
		seen[name] = true
	}
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			s.recommended = append(s.recommended, name)
		}
	}
	s.recommended = tail(s.recommended, m.limits.RecommendedCap)
	s.updatedAt = m.now()
	return nil
}

func (m *MemoryStore) Recommended(ctx context.Context, sessionID string, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session(sessionID, false)
	if s == nil {
		return nil, nil
	}
	recent := tail(s.recommended, n)
	out := make([]string, len(recent))
	copy(out, recent)
	return out, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Backend() string {
	return "memory"
}

func (m *MemoryStore) Close() error {
	return nil
}
