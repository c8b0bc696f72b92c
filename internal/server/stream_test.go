package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"artisty_assistant/internal/assistant"
	"artisty_assistant/internal/inventory"
	"artisty_assistant/internal/nodes"
	"artisty_assistant/pkg"
	"artisty_assistant/src/conversation"
	"artisty_assistant/src/llm/llmtest"
	"artisty_assistant/src/model"
	"artisty_assistant/src/storage"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingServer serves a real assistant whose model waits for its context to end
func blockingServer(t *testing.T, timeout time.Duration) http.Handler {
	t.Helper()

	raw, err := os.ReadFile("../inventory/testdata/art.txt")
	require.NoError(t, err)
	inv, _ := inventory.Parse(string(raw))

	memory := conversation.NewService(storage.NewMemoryStore(storage.Limits{}), model.MemoryConfig{MaxMessages: 20, MaxTokens: 2000})
	fake := llmtest.NewFakeModel(func(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	a, err := assistant.New(context.Background(), fake, inv, memory, assistant.Config{
		Assistant: model.AssistantConfig{MaxSearchResults: 6, MaxToolIterations: 4},
		Provider:  "fake",
	}, zerolog.Nop())
	require.NoError(t, err)

	return New(a, pkg.HealthStatus{}, timeout, zerolog.Nop()).Router()
}

func TestChatStreamTimeoutSendsApology(t *testing.T) {
	h := blockingServer(t, 100*time.Millisecond)

	plain := do(t, h, http.MethodPost, "/api/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, plain.Code)
	assert.Contains(t, plain.Body.String(), nodes.ApologyReply)

	rec := do(t, h, http.MethodPost, "/api/chat/stream", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var last pkg.StreamEvent
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if strings.HasPrefix(line, "data: ") {
			require.NoError(t, sonic.UnmarshalString(strings.TrimPrefix(line, "data: "), &last))
		}
	}
	assert.True(t, last.IsComplete)
	require.NotNil(t, last.FullResponse)
	assert.Equal(t, nodes.ApologyReply, *last.FullResponse)
	require.NotNil(t, last.Intent)
	assert.Equal(t, pkg.IntentGeneralInfo, *last.Intent)
}

func TestChatStreamClientCancelWritesNothing(t *testing.T) {
	h := blockingServer(t, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(`{"message":"hello"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Type"))
}
