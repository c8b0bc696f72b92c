package conversation

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

type ContextStrategy interface {
	BuildContext(messages []*schema.Message) string
	GetMaxTurns() int
}

// ====================== Search ======================
// SearchContextStrategy renders the recent transcript for the inventory search pass
type SearchContextStrategy struct {
	maxTurns int
}

func NewSearchContextStrategy(maxTurns int) *SearchContextStrategy {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &SearchContextStrategy{maxTurns: maxTurns}
}

func (s *SearchContextStrategy) GetMaxTurns() int {
	return s.maxTurns
}

func (s *SearchContextStrategy) BuildContext(messages []*schema.Message) string {
	recentMessages := trimTail(messages, s.maxTurns)
	if len(recentMessages) == 0 {
		return ""
	}

	var contextBuilder strings.Builder
	contextBuilder.WriteString("<conversation_context>\n")

	for _, msg := range recentMessages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			contextBuilder.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			contextBuilder.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}

	contextBuilder.WriteString("</conversation_context>")
	return contextBuilder.String()
}

// ====================== Window ======================
// Window keeps the newest messages that fit both maxTurns and an approximate token budget
// of four characters per token. Messages are never split.
func Window(messages []*schema.Message, maxTurns, maxTokens int) []*schema.Message {
	recent := trimTail(messages, maxTurns)
	if maxTokens <= 0 {
		return recent
	}

	used := 0
	start := len(recent)
	for i := len(recent) - 1; i >= 0; i-- {
		cost := estimateTokens(recent[i].Content)
		if used+cost > maxTokens {
			break
		}
		used += cost
		start = i
	}
	return recent[start:]
}

func estimateTokens(content string) int {
	return (len(content) + 3) / 4
}

// Helper function
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
