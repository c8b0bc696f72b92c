package core

import (
	"context"
	"time"

	"artisty_assistant/pkg"

	"github.com/cloudwego/eino/schema"
)

// Node represents a single processing unit in the graph flow
type Node interface {
	Execute(ctx context.Context, input NodeInput) (NodeOutput, error)
	GetName() string
	GetType() NodeType
}

// NodeType defines the different types of nodes in the graph
type NodeType string

const (
	NodeTypeReply   NodeType = "reply"
	NodeTypeIntent  NodeType = "intent"
	NodeTypeExtract NodeType = "extract"
	NodeTypeActions NodeType = "actions"
	NodeTypeMemory  NodeType = "memory"
)

// Node names used by the default flow
const (
	NodeReply    = "reply"
	NodeIntent   = "intent"
	NodeExtract  = "extract"
	NodeActions  = "actions"
	NodeMemory   = "memory"
	NodeComplete = "complete"
)

// Data keys nodes emit for edge conditions
const (
	KeyWantsArtworks = "wants_artworks"
	KeyDegraded      = "degraded"
)

// TurnState is the mutable working state of one turn while the graph runs. The assistant
// freezes it into a pkg.ConversationTurn when the graph completes.
type TurnState struct {
	TurnID      string
	SessionID   string
	UserMessage string
	History     []*schema.Message

	Reply     string
	ToolCalls []pkg.ToolCall

	// SearchKeyword is a validated SEARCH_TRIGGER marker keyword
	SearchKeyword string

	// Search pass results, set when search_inventory ran
	SearchRan      bool
	SearchResponse string
	SearchArtworks []string

	Intent   pkg.Intent
	Artworks []string
	Actions  []pkg.Action

	Degraded bool
	Err      error
}

// NodeInput contains the input data for a node
type NodeInput struct {
	UserMessage string         `json:"user_message"`
	SessionID   string         `json:"session_id"`
	Turn        *TurnState     `json:"-"`
	Metadata    map[string]any `json:"metadata"`
}

// NodeOutput contains the output data from a node
type NodeOutput struct {
	Data     map[string]any `json:"data"`
	NextNode string         `json:"next_node,omitempty"`
	Error    error          `json:"error,omitempty"`
	Complete bool           `json:"complete"`
}

// GraphProcessor orchestrates the execution of nodes in a graph flow
type GraphProcessor interface {
	Execute(ctx context.Context, input ProcessorInput) (*ProcessorOutput, error)
	AddNode(node Node) error
	GetNode(name string) (Node, error)
	SetFlow(flow GraphFlow) error
}

// ProcessorInput is the main input for the graph processor
type ProcessorInput struct {
	TurnID      string            `json:"turn_id"`
	SessionID   string            `json:"session_id"`
	UserMessage string            `json:"user_message"`
	History     []*schema.Message `json:"-"`
}

// ProcessorOutput is the main output from the graph processor
type ProcessorOutput struct {
	Turn           *TurnState     `json:"-"`
	ExecutionPath  []string       `json:"execution_path"`
	Errors         []string       `json:"errors,omitempty"`
	ProcessingTime time.Duration  `json:"processing_time"`
	Metadata       map[string]any `json:"metadata"`
}

// GraphFlow defines the execution flow between nodes
type GraphFlow struct {
	StartNode string                 `json:"start_node"`
	Edges     map[string][]GraphEdge `json:"edges"` // node_name -> possible next nodes
}

// GraphEdge represents a connection between two nodes with conditions
type GraphEdge struct {
	To        string         `json:"to"`
	Condition map[string]any `json:"condition,omitempty"`
	Priority  int            `json:"priority"`
}

// DefaultFlow is reply → intent → (extract when artworks are wanted) → actions → memory
func DefaultFlow() GraphFlow {
	return GraphFlow{
		StartNode: NodeReply,
		Edges: map[string][]GraphEdge{
			NodeReply: {
				{To: NodeComplete, Condition: map[string]any{KeyDegraded: true}, Priority: 1},
				{To: NodeIntent, Priority: 2},
			},
			NodeIntent: {
				{To: NodeExtract, Condition: map[string]any{KeyWantsArtworks: true}, Priority: 1},
				{To: NodeActions, Priority: 2},
			},
			NodeExtract: {
				{To: NodeActions, Priority: 1},
			},
			NodeActions: {
				{To: NodeMemory, Priority: 1},
			},
		},
	}
}
