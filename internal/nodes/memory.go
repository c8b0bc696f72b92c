package nodes

import (
	"context"
	"errors"

	"artisty_assistant/internal/core"
	"artisty_assistant/src/conversation"

	"github.com/rs/zerolog"
)

// MemoryNode appends the finished turn to the session memory
type MemoryNode struct {
	memory *conversation.Service
	logger zerolog.Logger
}

func NewMemoryNode(memory *conversation.Service, logger zerolog.Logger) *MemoryNode {
	return &MemoryNode{
		memory: memory,
		logger: logger.With().Str("component", "memory").Logger(),
	}
}

// Execute saves the turn. A failed write is reported but does not fail the turn.
func (n *MemoryNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	turn := input.Turn
	if turn == nil {
		return core.NodeOutput{}, errors.New("memory node needs a turn")
	}

	output := core.NodeOutput{Complete: true}
	if err := n.memory.SaveTurn(ctx, turn.SessionID, turn.UserMessage, turn.Reply); err != nil {
		n.logger.Warn().Err(err).Str("session_id", turn.SessionID).Msg("Failed to save turn")
		output.Error = err
		return output, nil
	}

	output.Data = map[string]any{"saved": true}
	return output, nil
}

// GetName returns the node name
func (n *MemoryNode) GetName() string {
	return core.NodeMemory
}

// GetType returns the node type
func (n *MemoryNode) GetType() core.NodeType {
	return core.NodeTypeMemory
}
