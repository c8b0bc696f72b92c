package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLimits = Limits{MaxMessages: 4, RecommendedCap: 3, TTL: time.Minute}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreWithClient(client, testLimits), mr
}

// storeContract runs the behavior every ConversationStore must share
func storeContract(t *testing.T, store ConversationStore) {
	ctx := context.Background()

	t.Run("empty session", func(t *testing.T) {
		messages, err := store.Load(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, messages)

		names, err := store.Recommended(ctx, "nobody", 5)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("append keeps order and evicts oldest", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			require.NoError(t, store.Append(ctx, "s1",
				schema.UserMessage(fmt.Sprintf("question %d", i)),
				schema.AssistantMessage(fmt.Sprintf("answer %d", i), nil),
			))
		}

		messages, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, messages, 4)
		assert.Equal(t, "question 2", messages[0].Content)
		assert.Equal(t, schema.User, messages[0].Role)
		assert.Equal(t, "answer 3", messages[3].Content)
		assert.Equal(t, schema.Assistant, messages[3].Role)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, "s2", schema.UserMessage("hello")))

		messages, err := store.Load(ctx, "s2")
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "hello", messages[0].Content)
	})

	t.Run("recommended history deduplicates and caps", func(t *testing.T) {
		require.NoError(t, store.AppendRecommended(ctx, "s3", []string{"Golden Gaze", "Neon Pride"}))
		require.NoError(t, store.AppendRecommended(ctx, "s3", []string{"Neon Pride", "Mystic River", "Bamboo Wind"}))

		all, err := store.Recommended(ctx, "s3", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Neon Pride", "Mystic River", "Bamboo Wind"}, all)

		recent, err := store.Recommended(ctx, "s3", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mystic River", "Bamboo Wind"}, recent)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

func TestRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	assert.Equal(t, "redis", store.Backend())
	storeContract(t, store)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(testLimits)
	assert.Equal(t, "memory", store.Backend())
	storeContract(t, store)
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", schema.UserMessage("hello")))
	assert.Equal(t, time.Minute, mr.TTL(conversationPrefix+"s1"))

	mr.FastForward(2 * time.Minute)

	messages, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestMemoryStoreTTL(t *testing.T) {
	store := NewMemoryStore(testLimits)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", schema.UserMessage("hello")))

	now = now.Add(30 * time.Second)
	messages, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	now = now.Add(2 * time.Minute)
	messages, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestNewRedisStoreErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewRedisStore(ctx, "", testLimits)
	assert.ErrorContains(t, err, "REDIS_URL is required")

	_, err = NewRedisStore(ctx, "not a url", testLimits)
	assert.ErrorContains(t, err, "failed to parse REDIS_URL")
}

func TestNewRedisStoreConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), testLimits)
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	store := NewMemoryStore(Limits{MaxMessages: 1000, TTL: time.Minute})
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 10; j++ {
				_ = store.Append(ctx, "shared", schema.UserMessage(fmt.Sprintf("%d-%d", i, j)))
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	messages, err := store.Load(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, messages, 100)
}
