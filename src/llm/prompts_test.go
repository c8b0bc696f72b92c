package llm

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyTemplateInjectsInventoryAndHistory(t *testing.T) {
	messages, err := NewReplyTemplate().Format(context.Background(), map[string]any{
		VarInventory: "1. Golden Gaze - $2400 (Italy) - A portrait.",
		VarHistory:   []*schema.Message{schema.UserMessage("hi"), schema.AssistantMessage("Hello!", nil)},
		VarInput:     "show me Italian art",
	})
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, schema.System, messages[0].Role)
	assert.Contains(t, messages[0].Content, "1. Golden Gaze - $2400 (Italy)")
	assert.Equal(t, "hi", messages[1].Content)
	assert.Equal(t, schema.User, messages[3].Role)
	assert.Equal(t, "show me Italian art", messages[3].Content)
}

func TestReplyTemplateWithoutHistory(t *testing.T) {
	messages, err := NewReplyTemplate().Format(context.Background(), map[string]any{
		VarInventory: "No inventory available",
		VarInput:     "hello",
	})
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestSearchTemplateKeepsJSONExample(t *testing.T) {
	messages, err := NewSearchTemplate().Format(context.Background(), map[string]any{
		VarQuery:     "Japanese art",
		VarContext:   "",
		VarRecent:    "Golden Gaze",
		VarInventory: "inventory",
		VarNames:     "Golden Gaze",
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Contains(t, messages[1].Content, `A user is asking: "Japanese art"`)
	assert.Contains(t, messages[1].Content, `"response": "Your helpful explanation`)
	assert.Contains(t, messages[1].Content, "{\n")
}

func TestClassifyAndExtractTemplates(t *testing.T) {
	ctx := context.Background()

	messages, err := NewClassifyTemplate().Format(ctx, map[string]any{
		VarUserMessage: "what do you have from Japan?",
		VarReply:       "Moonlit Sanctuary is lovely.",
	})
	require.NoError(t, err)
	assert.Contains(t, messages[0].Content, "USER MESSAGE: what do you have from Japan?")
	assert.Contains(t, messages[0].Content, "ASSISTANT RESPONSE: Moonlit Sanctuary is lovely.")

	messages, err = NewExtractTemplate().Format(ctx, map[string]any{VarReply: "Moonlit Sanctuary is lovely."})
	require.NoError(t, err)
	assert.Contains(t, messages[0].Content, "Moonlit Sanctuary is lovely.")
}
