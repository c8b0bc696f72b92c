package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artisty_assistant/internal/core"
	"artisty_assistant/pkg"
	"artisty_assistant/src/llm"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// IntentNode self-labels the reply as suggestion, general_info or both
type IntentNode struct {
	chain         compose.Runnable[map[string]any, *schema.Message]
	fallbackNames []string
	onFailure     FailureHook
	logger        zerolog.Logger
}

// NewIntentNode compiles the classification chain. fallbackNames are the inventory names
// checked when the label cannot be used.
func NewIntentNode(ctx context.Context, chatModel model.BaseChatModel, fallbackNames []string, onFailure FailureHook, logger zerolog.Logger) (*IntentNode, error) {
	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(llm.NewClassifyTemplate()).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile classify chain: %w", err)
	}

	lowered := make([]string, 0, len(fallbackNames))
	for _, name := range fallbackNames {
		lowered = append(lowered, strings.ToLower(name))
	}

	return &IntentNode{
		chain:         chain,
		fallbackNames: lowered,
		onFailure:     onFailure,
		logger:        logger.With().Str("component", "intent").Logger(),
	}, nil
}

// Execute classifies the turn and tells the flow whether artwork names are needed
func (n *IntentNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	turn := input.Turn
	if turn == nil {
		return core.NodeOutput{}, errors.New("intent node needs a turn")
	}

	intent, err := n.Classify(ctx, turn.UserMessage, turn.Reply)
	turn.Intent = intent

	output := core.NodeOutput{
		Data: map[string]any{
			core.KeyWantsArtworks: intent.WantsArtworks(),
			"intent":              string(intent),
		},
	}
	if err != nil {
		output.Error = err
	}
	return output, nil
}

// Classify asks the model for a label and falls back to a name scan of the reply.
// The returned error only reports that the fallback was used.
func (n *IntentNode) Classify(ctx context.Context, userMessage, reply string) (pkg.Intent, error) {
	result, err := n.chain.Invoke(ctx, map[string]any{
		llm.VarUserMessage: userMessage,
		llm.VarReply:       reply,
	})
	if err != nil {
		upstream := pkg.ClassifyLLMError("classify", err)
		n.onFailure.call("classify", upstream.Kind)
		n.logger.Warn().Err(upstream).Msg("Intent classification failed, using fallback")
		return n.fallback(reply), upstream
	}

	intent, ok := llm.ParseIntentLabel(result.Content)
	if !ok {
		n.logger.Debug().Str("label", result.Content).Msg("Unrecognized intent label, using fallback")
		return n.fallback(reply), nil
	}
	return intent, nil
}

// fallback never yields both
func (n *IntentNode) fallback(reply string) pkg.Intent {
	lowered := strings.ToLower(reply)
	for _, name := range n.fallbackNames {
		if name != "" && strings.Contains(lowered, name) {
			return pkg.IntentSuggestion
		}
	}
	return pkg.IntentGeneralInfo
}

// GetName returns the node name
func (n *IntentNode) GetName() string {
	return core.NodeIntent
}

// GetType returns the node type
func (n *IntentNode) GetType() core.NodeType {
	return core.NodeTypeIntent
}
