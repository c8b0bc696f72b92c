package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artisty_assistant/internal/core"
	"artisty_assistant/internal/grounding"
	"artisty_assistant/pkg"
	"artisty_assistant/src/llm"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

const (
	// ApologyReply is the customer-facing text of a degraded turn
	ApologyReply  = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."
	fallbackReply = "I'd be happy to help you explore our collection!"
)

// ReplyNode produces the grounded assistant reply. It runs the model/tool loop when the
// model supports tool calling and falls back to text markers otherwise.
type ReplyNode struct {
	model         model.BaseChatModel
	template      prompt.ChatTemplate
	tools         *Toolset
	validator     *grounding.Validator
	inventoryText func() string
	maxIterations int
	onFailure     FailureHook
	logger        zerolog.Logger
}

// ReplyConfig carries what the reply pass needs besides the model
type ReplyConfig struct {
	Tools         *Toolset
	Validator     *grounding.Validator
	InventoryText func() string
	MaxIterations int
	OnFailure     FailureHook
}

// NewReplyNode binds the tools to the model when it can call them
func NewReplyNode(ctx context.Context, chatModel model.BaseChatModel, config ReplyConfig, logger zerolog.Logger) (*ReplyNode, error) {
	if config.MaxIterations <= 0 {
		config.MaxIterations = 4
	}

	log := logger.With().Str("component", "reply").Logger()
	bound := chatModel

	if toolModel, ok := chatModel.(model.ToolCallingChatModel); ok && config.Tools != nil {
		infos, err := config.Tools.Infos(ctx)
		if err != nil {
			return nil, err
		}
		withTools, err := toolModel.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
		bound = withTools
	} else {
		log.Warn().Msg("Chat model has no tool calling, relying on text markers")
		config.Tools = nil
	}

	return &ReplyNode{
		model:         bound,
		template:      llm.NewReplyTemplate(),
		tools:         config.Tools,
		validator:     config.Validator,
		inventoryText: config.InventoryText,
		maxIterations: config.MaxIterations,
		onFailure:     config.OnFailure,
		logger:        log,
	}, nil
}

// Execute generates the reply for the turn
func (r *ReplyNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	turn := input.Turn
	if turn == nil {
		return core.NodeOutput{}, errors.New("reply node needs a turn")
	}
	log := r.logger.With().Str("session_id", turn.SessionID).Str("turn_id", turn.TurnID).Logger()

	messages, err := r.template.Format(ctx, map[string]any{
		llm.VarInventory: r.inventoryText(),
		llm.VarHistory:   turn.History,
		llm.VarInput:     turn.UserMessage,
	})
	if err != nil {
		return core.NodeOutput{}, fmt.Errorf("failed to format reply prompt: %w", err)
	}

	reply, err := r.converse(ctx, turn, messages)
	if err != nil {
		upstream := pkg.ClassifyLLMError("reply", err)
		r.onFailure.call("reply", upstream.Kind)
		log.Error().Err(upstream).Str("kind", string(upstream.Kind)).Msg("Reply generation failed")

		degrade(turn, upstream)
		return core.NodeOutput{
			Data:  map[string]any{core.KeyDegraded: true},
			Error: upstream,
		}, nil
	}

	if len(turn.ToolCalls) == 0 {
		reply = r.applyMarkers(turn, reply)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" && turn.SearchRan {
		reply = turn.SearchResponse
	}
	if reply == "" {
		reply = fallbackReply
	}
	turn.Reply = reply

	log.Debug().
		Int("tool_calls", len(turn.ToolCalls)).
		Bool("search_ran", turn.SearchRan).
		Msg("Reply generated")

	return core.NodeOutput{
		Data: map[string]any{
			core.KeyDegraded: false,
			"tool_calls":     len(turn.ToolCalls),
		},
	}, nil
}

// converse runs up to maxIterations model rounds, feeding tool results back each time
func (r *ReplyNode) converse(ctx context.Context, turn *core.TurnState, messages []*schema.Message) (string, error) {
	var last *schema.Message

	for i := 0; i < r.maxIterations; i++ {
		resp, err := r.model.Generate(ctx, messages)
		if err != nil {
			return "", err
		}
		if resp == nil {
			return "", pkg.ErrMalformedCompletion
		}
		last = resp

		if len(resp.ToolCalls) == 0 || r.tools == nil {
			return resp.Content, nil
		}

		messages = append(messages, resp)
		for _, call := range resp.ToolCalls {
			result, err := r.tools.Dispatch(ctx, turn, call)
			if err != nil {
				return "", err
			}
			messages = append(messages, schema.ToolMessage(result, call.ID))
		}
	}

	r.logger.Warn().Int("iterations", r.maxIterations).Msg("Tool loop exhausted")
	return last.Content, nil
}

// applyMarkers turns text markers into tool calls and strips them from the reply
func (r *ReplyNode) applyMarkers(turn *core.TurnState, reply string) string {
	markers, cleaned := llm.ParseMarkers(reply)
	if markers.Empty() {
		return reply
	}

	if markers.QuickView != "" {
		if name, ok := r.validator.ValidateArtworkName(markers.QuickView); ok {
			turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolQuickView, ArtworkName: name})
		}
	}
	if markers.AddToCart != "" {
		if name, ok := r.validator.ValidateArtworkName(markers.AddToCart); ok {
			turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolAddToCart, ArtworkName: name})
		}
	}
	if markers.GoToCart {
		turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolNavigate, Destination: pkg.DestinationCart})
	} else if markers.GoToHome {
		turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolNavigate, Destination: pkg.DestinationHome})
	}
	if markers.Checkout {
		turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolCheckout})
	}
	if markers.Search != "" {
		if keyword, ok := r.validator.ValidateKeyword(markers.Search); ok {
			turn.SearchKeyword = keyword
		}
	}

	return cleaned
}

// GetName returns the node name
func (r *ReplyNode) GetName() string {
	return core.NodeReply
}

// GetType returns the node type
func (r *ReplyNode) GetType() core.NodeType {
	return core.NodeTypeReply
}

// degrade resets the turn to the apologetic general_info answer
func degrade(turn *core.TurnState, err error) {
	turn.Degraded = true
	turn.Err = err
	turn.Reply = ApologyReply
	turn.Intent = pkg.IntentGeneralInfo
	turn.Artworks = nil
	turn.Actions = nil
	turn.ToolCalls = nil
	turn.SearchArtworks = nil
	turn.SearchKeyword = ""
}
