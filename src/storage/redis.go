package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session as a capped Redis list with a sliding TTL
type RedisStore struct {
	client *redis.Client
	limits Limits
}

// NewRedisStore connects to redisURL and verifies the connection
func NewRedisStore(ctx context.Context, redisURL string, limits Limits) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis store")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, limits), nil
}

func NewRedisStoreWithClient(client *redis.Client, limits Limits) *RedisStore {
	return &RedisStore{client: client, limits: limits.withDefaults()}
}

func (r *RedisStore) Append(ctx context.Context, sessionID string, messages ...*schema.Message) error {
	if len(messages) == 0 {
		return nil
	}

	values := make([]any, 0, len(messages))
	for _, msg := range messages {
		data, err := sonic.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, data)
	}

	key := conversationPrefix + sessionID
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, int64(-r.limits.MaxMessages), -1)
		pipe.Expire(ctx, key, r.limits.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append messages: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	key := conversationPrefix + sessionID
	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	messages := make([]*schema.Message, 0, len(raw))
	for _, item := range raw {
		var msg schema.Message
		if err := sonic.UnmarshalString(item, &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, &msg)
	}

	// Refresh TTL
	if len(raw) > 0 {
		r.client.Expire(ctx, key, r.limits.TTL)
	}
	return messages, nil
}

func (r *RedisStore) AppendRecommended(ctx context.Context, sessionID string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	key := recommendedPrefix + sessionID
	existing, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to load recommended history: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, name := range existing {
		seen[name] = true
	}

	var fresh []any
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			fresh = append(fresh, name)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, fresh...)
		pipe.LTrim(ctx, key, int64(-r.limits.RecommendedCap), -1)
		pipe.Expire(ctx, key, r.limits.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append recommended history: %w", err)
	}
	return nil
}

func (r *RedisStore) Recommended(ctx context.Context, sessionID string, n int) ([]string, error) {
	start := int64(0)
	if n > 0 {
		start = int64(-n)
	}
	names, err := r.client.LRange(ctx, recommendedPrefix+sessionID, start, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load recommended history: %w", err)
	}
	return names, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Backend() string {
	return "redis"
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
