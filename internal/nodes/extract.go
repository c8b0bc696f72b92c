package nodes

import (
	"context"
	"errors"
	"fmt"

	"artisty_assistant/internal/core"
	"artisty_assistant/internal/grounding"
	"artisty_assistant/pkg"
	"artisty_assistant/src/llm"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// ExtractNode pulls the suggested artwork names out of the reply and grounds them
type ExtractNode struct {
	chain     compose.Runnable[map[string]any, *schema.Message]
	validator *grounding.Validator
	onFailure FailureHook
	logger    zerolog.Logger
}

func NewExtractNode(ctx context.Context, chatModel model.BaseChatModel, validator *grounding.Validator, onFailure FailureHook, logger zerolog.Logger) (*ExtractNode, error) {
	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(llm.NewExtractTemplate()).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile extract chain: %w", err)
	}

	return &ExtractNode{
		chain:     chain,
		validator: validator,
		onFailure: onFailure,
		logger:    logger.With().Str("component", "extract").Logger(),
	}, nil
}

// Execute sets the turn's artworks: search results first, then extracted names
func (n *ExtractNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	turn := input.Turn
	if turn == nil {
		return core.NodeOutput{}, errors.New("extract node needs a turn")
	}

	extracted, err := n.Extract(ctx, turn.Reply)
	turn.Artworks = appendUnique(append([]string(nil), turn.SearchArtworks...), extracted...)

	return core.NodeOutput{
		Data:  map[string]any{"artworks": len(turn.Artworks)},
		Error: err,
	}, nil
}

// Extract returns validated inventory names mentioned in the reply
func (n *ExtractNode) Extract(ctx context.Context, reply string) ([]string, error) {
	result, err := n.chain.Invoke(ctx, map[string]any{llm.VarReply: reply})
	if err != nil {
		upstream := pkg.ClassifyLLMError("extract", err)
		n.onFailure.call("extract", upstream.Kind)
		n.logger.Warn().Err(upstream).Msg("Artwork extraction failed")
		return nil, upstream
	}

	candidates := llm.ParseExtraction(result.Content)
	names := n.validator.ValidateArtworkNames(candidates)

	n.logger.Debug().
		Int("candidates", len(candidates)).
		Int("grounded", len(names)).
		Msg("Artwork names extracted")
	return names, nil
}

// GetName returns the node name
func (n *ExtractNode) GetName() string {
	return core.NodeExtract
}

// GetType returns the node type
func (n *ExtractNode) GetType() core.NodeType {
	return core.NodeTypeExtract
}
