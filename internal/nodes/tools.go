package nodes

import (
	"context"
	"fmt"
	"strings"

	"artisty_assistant/internal/core"
	"artisty_assistant/internal/grounding"
	"artisty_assistant/internal/inventory"
	"artisty_assistant/pkg"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// FailureHook observes LLM failures per pass. A nil hook is a no-op.
type FailureHook func(pass string, kind pkg.UpstreamKind)

func (h FailureHook) call(pass string, kind pkg.UpstreamKind) {
	if h != nil {
		h(pass, kind)
	}
}

// SearchArgs are the arguments of search_inventory
type SearchArgs struct {
	Query string `json:"query" jsonschema:"description=What the customer is looking for such as a country or color or theme"`
}

// ArtworkArgs name one artwork from the inventory
type ArtworkArgs struct {
	ArtworkName string `json:"artwork_name" jsonschema:"description=Exact artwork name as it appears in the inventory"`
}

// NavigateArgs select a storefront page
type NavigateArgs struct {
	Destination string `json:"destination" jsonschema:"description=Where to go: cart or home"`
}

// NoArgs is used by tools without parameters
type NoArgs struct{}

// toolOrder is the closed set of tools offered to the reply model
var toolOrder = []pkg.ToolName{
	pkg.ToolSearchInventory,
	pkg.ToolListCountries,
	pkg.ToolArtworkDetails,
	pkg.ToolQuickView,
	pkg.ToolAddToCart,
	pkg.ToolNavigate,
	pkg.ToolCheckout,
}

type turnKey struct{}

func withTurn(ctx context.Context, turn *core.TurnState) context.Context {
	return context.WithValue(ctx, turnKey{}, turn)
}

// turnFrom returns the turn a tool runs for. Tools run outside a turn record into a scratch state.
func turnFrom(ctx context.Context) *core.TurnState {
	if turn, ok := ctx.Value(turnKey{}).(*core.TurnState); ok && turn != nil {
		return turn
	}
	return &core.TurnState{}
}

// Toolset holds the typed gallery tools and dispatches model tool calls to them
type Toolset struct {
	tools     map[pkg.ToolName]tool.InvokableTool
	inventory *inventory.Inventory
	validator *grounding.Validator
	searcher  *Searcher
}

// NewToolset builds every tool in toolOrder
func NewToolset(inv *inventory.Inventory, validator *grounding.Validator, searcher *Searcher) (*Toolset, error) {
	t := &Toolset{
		tools:     make(map[pkg.ToolName]tool.InvokableTool, len(toolOrder)),
		inventory: inv,
		validator: validator,
		searcher:  searcher,
	}

	for _, name := range toolOrder {
		built, err := t.build(name)
		if err != nil {
			return nil, fmt.Errorf("failed to build tool %s: %w", name, err)
		}
		t.tools[name] = built
	}
	return t, nil
}

func (t *Toolset) build(name pkg.ToolName) (tool.InvokableTool, error) {
	n := string(name)
	switch name {
	case pkg.ToolSearchInventory:
		return utils.InferTool(n, "Search the gallery inventory for artworks matching the customer's request", t.searchInventory)
	case pkg.ToolListCountries:
		return utils.InferTool(n, "List every country represented in the gallery", t.listCountries)
	case pkg.ToolArtworkDetails:
		return utils.InferTool(n, "Get the price and country and description of one artwork", t.artworkDetails)
	case pkg.ToolQuickView:
		return utils.InferTool(n, "Open the quick view of a specific artwork the customer named", t.quickView)
	case pkg.ToolAddToCart:
		return utils.InferTool(n, "Add a specific artwork the customer named to the cart", t.addToCart)
	case pkg.ToolNavigate:
		return utils.InferTool(n, "Navigate the storefront to the cart or the home page", t.navigate)
	case pkg.ToolCheckout:
		return utils.InferTool(n, "Start the checkout for the items in the cart", t.checkout)
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

// Infos returns the tool schemas in a stable order
func (t *Toolset) Infos(ctx context.Context) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(toolOrder))
	for _, name := range toolOrder {
		info, err := t.tools[name].Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe tool %s: %w", name, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Dispatch runs one model tool call for the turn and returns the text fed back to the model.
// Unknown tools and bad arguments are answered, not returned; only tool failures that must
// abort the turn come back as errors.
func (t *Toolset) Dispatch(ctx context.Context, turn *core.TurnState, call schema.ToolCall) (string, error) {
	name, ok := pkg.ParseToolName(call.Function.Name)
	if !ok {
		return fmt.Sprintf("Unknown tool '%s'.", call.Function.Name), nil
	}

	args := strings.TrimSpace(call.Function.Arguments)
	if args == "" {
		args = "{}"
	}

	result, err := t.tools[name].InvokableRun(withTurn(ctx, turn), args)
	if upstream, ok := pkg.AsUpstream(turn.Err); ok && upstream.OperatorActionable() {
		return "", upstream
	}
	if err != nil {
		return fmt.Sprintf("Tool %s failed: %v", name, err), nil
	}
	return result, nil
}

func (t *Toolset) searchInventory(ctx context.Context, args SearchArgs) (string, error) {
	turn := turnFrom(ctx)
	query := strings.TrimSpace(args.Query)
	if query == "" {
		query = turn.UserMessage
	}

	outcome, err := t.searcher.Search(ctx, turn.SessionID, query)
	if err != nil {
		// the tool wrapper may not keep the error chain, so the turn carries it
		turn.Err = err
		return "", err
	}

	turn.SearchRan = true
	turn.SearchResponse = outcome.Response
	turn.SearchArtworks = appendUnique(turn.SearchArtworks, outcome.Artworks...)
	turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{
		Name:     pkg.ToolSearchInventory,
		Query:    query,
		Artworks: outcome.Artworks,
	})

	return sonic.MarshalString(outcome)
}

func (t *Toolset) listCountries(ctx context.Context, _ NoArgs) (string, error) {
	turn := turnFrom(ctx)
	turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolListCountries})

	countries := t.inventory.Countries()
	if len(countries) == 0 {
		return "No countries are currently available in our inventory.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Countries represented in our gallery (%d total):", len(countries))
	for i, c := range countries {
		fmt.Fprintf(&b, "\n%d. %s", i+1, c)
	}
	return b.String(), nil
}

func (t *Toolset) artworkDetails(ctx context.Context, args ArtworkArgs) (string, error) {
	turn := turnFrom(ctx)
	turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolArtworkDetails, ArtworkName: args.ArtworkName})

	if name, ok := t.validator.ValidateArtworkName(args.ArtworkName); ok {
		if record, found := t.inventory.Lookup(name); found {
			return "Artwork details: " + record.Line(), nil
		}
	}
	return fmt.Sprintf("Artwork '%s' not found in inventory.", args.ArtworkName), nil
}

func (t *Toolset) quickView(ctx context.Context, args ArtworkArgs) (string, error) {
	name, ok := t.validator.ValidateArtworkName(args.ArtworkName)
	if !ok {
		return fmt.Sprintf("Artwork '%s' not found in inventory.", args.ArtworkName), nil
	}
	turn := turnFrom(ctx)
	turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolQuickView, ArtworkName: name})
	return fmt.Sprintf("Opening quick view for %s.", name), nil
}

func (t *Toolset) addToCart(ctx context.Context, args ArtworkArgs) (string, error) {
	name, ok := t.validator.ValidateArtworkName(args.ArtworkName)
	if !ok {
		return fmt.Sprintf("Artwork '%s' not found in inventory.", args.ArtworkName), nil
	}
	turn := turnFrom(ctx)
	turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolAddToCart, ArtworkName: name})
	return fmt.Sprintf("Added %s to the cart.", name), nil
}

func (t *Toolset) navigate(ctx context.Context, args NavigateArgs) (string, error) {
	destination, ok := pkg.NormalizeDestination(args.Destination)
	if !ok {
		return "No destination given. Use cart or home.", nil
	}
	turn := turnFrom(ctx)
	turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolNavigate, Destination: destination})
	return fmt.Sprintf("Navigating to %s.", destination), nil
}

func (t *Toolset) checkout(ctx context.Context, _ NoArgs) (string, error) {
	turn := turnFrom(ctx)
	turn.ToolCalls = append(turn.ToolCalls, pkg.ToolCall{Name: pkg.ToolCheckout})
	return "Proceeding to checkout.", nil
}

// appendUnique appends values not already present, keeping first positions
func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(values))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
