package nodes

import (
	"context"
	"errors"
	"strings"

	"artisty_assistant/internal/core"
	"artisty_assistant/internal/grounding"
	"artisty_assistant/pkg"

	"github.com/rs/zerolog"
)

// Synthesize derives the ordered web actions of a turn:
//  1. explicit tool calls map 1:1, with names grounded and destinations normalized
//  2. without an imperative action, a suggestion with names adds search then scroll
//
// A grounded marker keyword replaces the names as the search term. It never adds a
// search on its own, so at most one search is emitted.
func Synthesize(intent pkg.Intent, names []string, calls []pkg.ToolCall, keyword string, validator *grounding.Validator) []pkg.Action {
	var actions []pkg.Action
	imperative := false

	add := func(a pkg.Action) {
		for _, existing := range actions {
			if existing == a {
				return
			}
		}
		if a.Type.Imperative() {
			imperative = true
		}
		actions = append(actions, a)
	}

	for _, call := range calls {
		switch call.Name {
		case pkg.ToolQuickView:
			if name, ok := validator.ValidateArtworkName(call.ArtworkName); ok {
				add(pkg.QuickViewAction(name))
			}
		case pkg.ToolAddToCart:
			if name, ok := validator.ValidateArtworkName(call.ArtworkName); ok {
				add(pkg.AddToCartAction(name))
			}
		case pkg.ToolNavigate:
			if destination, ok := pkg.NormalizeDestination(call.Destination); ok {
				add(pkg.NavigateAction(destination))
			}
		case pkg.ToolCheckout:
			add(pkg.CheckoutAction())
		case pkg.ToolSearchInventory, pkg.ToolListCountries, pkg.ToolArtworkDetails:
			// informational, the search result reaches the turn through its names
		}
	}

	if !imperative && intent.WantsArtworks() && len(names) > 0 {
		term := strings.Join(names, " ")
		if keyword != "" {
			if grounded, ok := validator.ValidateKeyword(keyword); ok {
				term = grounded
			}
		}
		add(pkg.SearchAction(strings.ToLower(term)))
		add(pkg.ScrollAction(pkg.ScrollTargetCollection))
	}

	if actions == nil {
		actions = []pkg.Action{}
	}
	return actions
}

// ActionsNode turns the classified turn into web actions
type ActionsNode struct {
	validator *grounding.Validator
	logger    zerolog.Logger
}

func NewActionsNode(validator *grounding.Validator, logger zerolog.Logger) *ActionsNode {
	return &ActionsNode{
		validator: validator,
		logger:    logger.With().Str("component", "actions").Logger(),
	}
}

// Execute fills the turn's actions
func (n *ActionsNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	turn := input.Turn
	if turn == nil {
		return core.NodeOutput{}, errors.New("actions node needs a turn")
	}
	if !turn.Intent.WantsArtworks() {
		turn.Artworks = nil
	}

	turn.Actions = Synthesize(turn.Intent, turn.Artworks, turn.ToolCalls, turn.SearchKeyword, n.validator)

	n.logger.Debug().
		Str("turn_id", turn.TurnID).
		Int("actions", len(turn.Actions)).
		Msg("Actions synthesized")

	return core.NodeOutput{
		Data: map[string]any{"actions": len(turn.Actions)},
	}, nil
}

// GetName returns the node name
func (n *ActionsNode) GetName() string {
	return core.NodeActions
}

// GetType returns the node type
func (n *ActionsNode) GetType() core.NodeType {
	return core.NodeTypeActions
}
