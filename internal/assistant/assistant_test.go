package assistant

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"artisty_assistant/internal/inventory"
	"artisty_assistant/internal/nodes"
	"artisty_assistant/pkg"
	"artisty_assistant/src/conversation"
	"artisty_assistant/src/llm/llmtest"
	"artisty_assistant/src/model"
	"artisty_assistant/src/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Assistant: model.AssistantConfig{
			MaxSearchResults:      6,
			DiversityWindow:       5,
			IntentFallbackNames:   30,
			MaxToolIterations:     4,
			SearchContextMessages: 10,
			SlowTurnThreshold:     5 * time.Second,
		},
		Provider: "fake",
	}
}

func newTestAssistant(t *testing.T, handler llmtest.Handler) (*Assistant, *conversation.Service) {
	t.Helper()

	raw, err := os.ReadFile("../inventory/testdata/art.txt")
	require.NoError(t, err)
	inv, _ := inventory.Parse(string(raw))

	memory := conversation.NewService(storage.NewMemoryStore(storage.Limits{}), model.MemoryConfig{MaxMessages: 20, MaxTokens: 2000})

	a, err := New(context.Background(), llmtest.NewFakeModel(handler), inv, memory, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	return a, memory
}

func japanHandler() llmtest.Handler {
	return llmtest.Router(map[llmtest.Pass]llmtest.Handler{
		llmtest.PassReply: func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
			if !llmtest.HasToolResult(messages) {
				return llmtest.ToolCall("c1", "search_inventory", `{"query":"art from japan"}`), nil
			}
			return schema.AssistantMessage("I found two Japanese pieces: Moonlit Sanctuary and Porcelain Songbird.", nil), nil
		},
		llmtest.PassSearch:   llmtest.Reply(`{"response":"Two pieces from Japan.","artworks":["Moonlit Sanctuary","Porcelain Songbird"],"count":2}`),
		llmtest.PassClassify: llmtest.Reply("suggestion"),
		llmtest.PassExtract:  llmtest.Reply("Moonlit Sanctuary\nPorcelain Songbird"),
	})
}

func TestHandleSuggestion(t *testing.T) {
	a, memory := newTestAssistant(t, japanHandler())

	turn := a.Handle(context.Background(), "s1", "show me art from Japan")

	assert.False(t, turn.Degraded)
	assert.Equal(t, pkg.IntentSuggestion, turn.Intent)
	assert.Equal(t, []string{"Moonlit Sanctuary", "Porcelain Songbird"}, turn.Artworks)
	assert.Equal(t, []pkg.Action{
		pkg.SearchAction("moonlit sanctuary porcelain songbird"),
		pkg.ScrollAction(pkg.ScrollTargetCollection),
	}, turn.Actions)
	assert.NotEmpty(t, turn.ID)

	history, err := memory.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "show me art from Japan", history[0].Content)
	assert.Equal(t, turn.Reply, history[1].Content)
}

func TestHandleAddToCartOnly(t *testing.T) {
	a, _ := newTestAssistant(t, llmtest.Router(map[llmtest.Pass]llmtest.Handler{
		llmtest.PassReply: func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
			if !llmtest.HasToolResult(messages) {
				return llmtest.ToolCall("c1", "add_to_cart", `{"artwork_name":"Golden Gaze"}`), nil
			}
			return schema.AssistantMessage("Golden Gaze is now in your cart.", nil), nil
		},
		llmtest.PassClassify: llmtest.Reply("suggestion"),
		llmtest.PassExtract:  llmtest.Reply("Golden Gaze"),
	}))

	turn := a.Handle(context.Background(), "s1", "add Golden Gaze to cart")

	assert.Equal(t, []pkg.Action{pkg.AddToCartAction("Golden Gaze")}, turn.Actions)
	assert.Equal(t, "Golden Gaze is now in your cart.", turn.Reply)
}

func TestHandleGeneralInfo(t *testing.T) {
	a, _ := newTestAssistant(t, llmtest.Router(map[llmtest.Pass]llmtest.Handler{
		llmtest.PassReply:    llmtest.Reply("We ship worldwide within five business days."),
		llmtest.PassClassify: llmtest.Reply("general_info"),
		llmtest.PassExtract: func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
			return nil, errors.New("extraction must not run for general info")
		},
	}))

	turn := a.Handle(context.Background(), "", "do you ship internationally?")

	assert.Equal(t, DefaultSession, turn.SessionID)
	assert.Equal(t, pkg.IntentGeneralInfo, turn.Intent)
	assert.Empty(t, turn.Artworks)
	assert.NotNil(t, turn.Actions)
	assert.Empty(t, turn.Actions)
}

func newMarkerAssistant(t *testing.T, handler llmtest.Handler) *Assistant {
	t.Helper()

	raw, err := os.ReadFile("../inventory/testdata/art.txt")
	require.NoError(t, err)
	inv, _ := inventory.Parse(string(raw))

	memory := conversation.NewService(storage.NewMemoryStore(storage.Limits{}), model.MemoryConfig{MaxMessages: 20, MaxTokens: 2000})

	a, err := New(context.Background(), llmtest.PlainModel{Fake: llmtest.NewFakeModel(handler)}, inv, memory, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	return a
}

func TestHandleMarkerKeywordRespectsGuards(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		intent  string
		extract string
		want    []pkg.Action
	}{
		{
			name:    "add to cart wins over the keyword",
			reply:   "Added it for you!\nADD_TO_CART: Golden Gaze\nSEARCH_TRIGGER: japan",
			intent:  "suggestion",
			extract: "Golden Gaze",
			want:    []pkg.Action{pkg.AddToCartAction("Golden Gaze")},
		},
		{
			name:    "keyword without names adds nothing",
			reply:   "We ship worldwide.\nSEARCH_TRIGGER: japan",
			intent:  "general_info",
			extract: "NONE",
			want:    []pkg.Action{},
		},
		{
			name:    "keyword becomes the search term of a suggestion",
			reply:   "Moonlit Sanctuary is lovely.\nSEARCH_TRIGGER: japan",
			intent:  "suggestion",
			extract: "Moonlit Sanctuary",
			want: []pkg.Action{
				pkg.SearchAction("japan"),
				pkg.ScrollAction(pkg.ScrollTargetCollection),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newMarkerAssistant(t, llmtest.Router(map[llmtest.Pass]llmtest.Handler{
				llmtest.PassReply:    llmtest.Reply(tt.reply),
				llmtest.PassClassify: llmtest.Reply(tt.intent),
				llmtest.PassExtract:  llmtest.Reply(tt.extract),
			}))

			turn := a.Handle(context.Background(), "s1", "hello")

			assert.False(t, turn.Degraded)
			assert.Equal(t, tt.want, turn.Actions)
			assert.NotContains(t, turn.Reply, "SEARCH_TRIGGER")
		})
	}
}

func TestHandleTimeoutDegrades(t *testing.T) {
	a, memory := newTestAssistant(t, func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	turn := a.Handle(ctx, "s1", "hello")

	assert.True(t, turn.Degraded)
	assert.Equal(t, nodes.ApologyReply, turn.Reply)
	assert.Equal(t, pkg.IntentGeneralInfo, turn.Intent)
	assert.Empty(t, turn.Artworks)
	assert.Empty(t, turn.Actions)

	upstream, ok := pkg.AsUpstream(turn.Err)
	require.True(t, ok)
	assert.Equal(t, pkg.UpstreamTimeout, upstream.Kind)

	history, err := memory.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHandleAuthFailure(t *testing.T) {
	a, _ := newTestAssistant(t, llmtest.Fail(errors.New("error, status code: 401, message: Incorrect API key provided")))

	turn := a.Handle(context.Background(), "s1", "hello")

	upstream, ok := pkg.AsUpstream(turn.Err)
	require.True(t, ok)
	assert.True(t, upstream.OperatorActionable())
	assert.Equal(t, pkg.UpstreamAuth, upstream.Kind)
}

func TestHealth(t *testing.T) {
	a, _ := newTestAssistant(t, llmtest.Reply("hi"))

	health := a.Health(context.Background())
	assert.Equal(t, "healthy", health.Status)
	assert.True(t, health.InventoryLoaded)
	assert.True(t, health.AssistantReady)
	assert.Equal(t, 10, health.ArtworkCount)
	assert.Positive(t, health.InventoryLength)
	assert.Equal(t, "memory", health.MemoryBackend)
	assert.True(t, health.MemoryReachable)
}

func TestHealthReportsUnreachableMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := storage.NewRedisStore(context.Background(), "redis://"+mr.Addr(), storage.Limits{})
	require.NoError(t, err)
	defer store.Close()

	memory := conversation.NewService(store, model.MemoryConfig{MaxMessages: 20, MaxTokens: 2000})
	a, err := New(context.Background(), llmtest.NewFakeModel(llmtest.Reply("hi")), nil, memory, testConfig(), zerolog.Nop())
	require.NoError(t, err)

	assert.True(t, a.Health(context.Background()).MemoryReachable)

	mr.Close()
	health := a.Health(context.Background())
	assert.Equal(t, "redis", health.MemoryBackend)
	assert.False(t, health.MemoryReachable)
}

func TestHealthWithoutInventory(t *testing.T) {
	memory := conversation.NewService(storage.NewMemoryStore(storage.Limits{}), model.MemoryConfig{})
	a, err := New(context.Background(), llmtest.NewFakeModel(llmtest.Reply("hi")), nil, memory, testConfig(), zerolog.Nop())
	require.NoError(t, err)

	health := a.Health(context.Background())
	assert.False(t, health.InventoryLoaded)
	assert.True(t, health.AssistantReady)
	assert.Zero(t, health.ArtworkCount)
}

func collect(t *testing.T, sr *schema.StreamReader[pkg.StreamEvent]) []pkg.StreamEvent {
	t.Helper()
	defer sr.Close()

	var events []pkg.StreamEvent
	for {
		event, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return events
		}
		require.NoError(t, err)
		events = append(events, event)
	}
}

func TestEvents(t *testing.T) {
	turn := pkg.ConversationTurn{
		Reply:    "Try Golden Gaze today",
		Intent:   pkg.IntentSuggestion,
		Artworks: []string{"Golden Gaze"},
		Actions:  []pkg.Action{pkg.SearchAction("golden gaze"), pkg.ScrollAction(pkg.ScrollTargetCollection)},
	}

	events := collect(t, Events(turn))
	require.Len(t, events, 5)

	first := events[0]
	assert.True(t, first.ActionsOnly)
	assert.Equal(t, turn.Actions, first.WebActions)
	assert.False(t, first.IsComplete)
	assert.Nil(t, first.FullResponse)

	assert.Equal(t, "Try ", events[1].Chunk)
	assert.Empty(t, events[1].WebActions)
	assert.Nil(t, events[1].Intent)

	last := events[4]
	assert.True(t, last.IsComplete)
	assert.Equal(t, "today ", last.Chunk)
	require.NotNil(t, last.Intent)
	assert.Equal(t, pkg.IntentSuggestion, *last.Intent)
	require.NotNil(t, last.FullResponse)
	assert.Equal(t, turn.Reply, *last.FullResponse)
	assert.Equal(t, turn.Artworks, last.SuggestedArtworks)
}

func TestEventsWithoutActionsOrText(t *testing.T) {
	events := collect(t, Events(pkg.ConversationTurn{Intent: pkg.IntentGeneralInfo}))
	require.Len(t, events, 1)
	assert.True(t, events[0].IsComplete)
	assert.False(t, events[0].ActionsOnly)
}

func TestEventsEarlyClose(t *testing.T) {
	sr := Events(pkg.ConversationTurn{Reply: "one two three four five six seven eight"})

	event, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "one ", event.Chunk)
	sr.Close()
}

func TestStreamAbandonedTurnCompletes(t *testing.T) {
	release := make(chan struct{})
	a, memory := newTestAssistant(t, llmtest.Router(map[llmtest.Pass]llmtest.Handler{
		llmtest.PassReply: func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
			<-release
			return schema.AssistantMessage("Welcome back!", nil), nil
		},
		llmtest.PassClassify: llmtest.Reply("general_info"),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Stream(ctx, "s1", "hello")
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool {
		history, err := memory.History(context.Background(), "s1")
		return err == nil && len(history) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestStreamDeadlineDegrades(t *testing.T) {
	a, memory := newTestAssistant(t, func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	turn, err := a.Stream(ctx, "s1", "hello")
	require.NoError(t, err)

	assert.True(t, turn.Degraded)
	assert.Equal(t, nodes.ApologyReply, turn.Reply)
	assert.Empty(t, turn.Actions)

	events := collect(t, Events(turn))
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.True(t, last.IsComplete)
	require.NotNil(t, last.FullResponse)
	assert.Equal(t, nodes.ApologyReply, *last.FullResponse)

	history, err := memory.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStream(t *testing.T) {
	a, _ := newTestAssistant(t, japanHandler())

	turn, err := a.Stream(context.Background(), "s1", "show me art from Japan")
	require.NoError(t, err)

	events := collect(t, Events(turn))
	require.NotEmpty(t, events)
	assert.True(t, events[0].ActionsOnly)
	assert.True(t, events[len(events)-1].IsComplete)
}
