package storage

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

const (
	conversationPrefix = "conversation:"
	recommendedPrefix  = "recommended:"

	DefaultTTL = 60 * time.Minute
)

// ConversationStore keeps per-session chat history and the artworks already recommended
// in that session. Appends for one session are applied in call order.
type ConversationStore interface {
	Append(ctx context.Context, sessionID string, messages ...*schema.Message) error
	Load(ctx context.Context, sessionID string) ([]*schema.Message, error)
	AppendRecommended(ctx context.Context, sessionID string, names []string) error
	Recommended(ctx context.Context, sessionID string, n int) ([]string, error)
	Ping(ctx context.Context) error
	Backend() string
	Close() error
}

// Limits bound what a store keeps per session
type Limits struct {
	MaxMessages    int
	RecommendedCap int
	TTL            time.Duration
}

func (l Limits) withDefaults() Limits {
	if l.MaxMessages <= 0 {
		l.MaxMessages = 20
	}
	if l.RecommendedCap <= 0 {
		l.RecommendedCap = 50
	}
	if l.TTL <= 0 {
		l.TTL = DefaultTTL
	}
	return l
}

func tail[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
