package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

var _ GraphProcessor = (*DefaultGraphProcessor)(nil)

// maxSteps guards against cyclic flows
const maxSteps = 32

// DefaultGraphProcessor implements the GraphProcessor interface
type DefaultGraphProcessor struct {
	nodes  map[string]Node
	flow   GraphFlow
	logger zerolog.Logger
}

// NewGraphProcessor creates a new graph processor
func NewGraphProcessor(flow GraphFlow, logger zerolog.Logger) *DefaultGraphProcessor {
	return &DefaultGraphProcessor{
		nodes:  make(map[string]Node),
		flow:   flow,
		logger: logger,
	}
}

// Execute runs the graph flow with the given input
func (g *DefaultGraphProcessor) Execute(ctx context.Context, input ProcessorInput) (*ProcessorOutput, error) {
	startTime := time.Now()
	log := g.logger.With().Str("session_id", input.SessionID).Str("turn_id", input.TurnID).Logger()

	log.Debug().Msg("Starting graph execution")

	turn := &TurnState{
		TurnID:      input.TurnID,
		SessionID:   input.SessionID,
		UserMessage: input.UserMessage,
		History:     input.History,
	}
	nodeInput := NodeInput{
		UserMessage: input.UserMessage,
		SessionID:   input.SessionID,
		Turn:        turn,
		Metadata:    make(map[string]any),
	}
	output := &ProcessorOutput{
		Turn:     turn,
		Metadata: make(map[string]any),
	}

	currentNode := g.flow.StartNode
	for currentNode != "" && currentNode != NodeComplete {
		if len(output.ExecutionPath) >= maxSteps {
			return nil, fmt.Errorf("graph exceeded %d steps at node %s", maxSteps, currentNode)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("graph cancelled before node %s: %w", currentNode, err)
		}

		output.ExecutionPath = append(output.ExecutionPath, currentNode)

		node, exists := g.nodes[currentNode]
		if !exists {
			return nil, fmt.Errorf("node not found: %s", currentNode)
		}

		nodeStart := time.Now()
		nodeOutput, err := node.Execute(ctx, nodeInput)
		if err != nil {
			log.Error().Err(err).Str("node", currentNode).Msg("Node execution failed")
			return nil, fmt.Errorf("error executing node %s: %w", currentNode, err)
		}

		// Handle node error (non-fatal)
		if nodeOutput.Error != nil {
			log.Warn().Err(nodeOutput.Error).Str("node", currentNode).Msg("Node returned error")
			output.Errors = append(output.Errors, fmt.Sprintf("%s: %v", currentNode, nodeOutput.Error))
		}

		g.processNodeOutput(currentNode, nodeOutput, output, &nodeInput)

		log.Debug().
			Str("node", currentNode).
			Dur("duration", time.Since(nodeStart)).
			Msg("Node completed")

		if nodeOutput.Complete {
			break
		}

		nextNode := nodeOutput.NextNode
		if nextNode == "" {
			nextNode = g.getNextNode(currentNode, nodeOutput)
		}
		currentNode = nextNode
	}

	output.ProcessingTime = time.Since(startTime)
	output.Metadata["execution_path"] = output.ExecutionPath

	log.Debug().
		Strs("execution_path", output.ExecutionPath).
		Dur("processing_time", output.ProcessingTime).
		Msg("Graph execution completed")

	return output, nil
}

// AddNode adds a node to the processor
func (g *DefaultGraphProcessor) AddNode(node Node) error {
	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}

	nodeName := node.GetName()
	if nodeName == "" {
		return fmt.Errorf("node name cannot be empty")
	}
	if _, exists := g.nodes[nodeName]; exists {
		return fmt.Errorf("node already registered: %s", nodeName)
	}

	g.nodes[nodeName] = node
	return nil
}

// GetNode retrieves a node by name
func (g *DefaultGraphProcessor) GetNode(name string) (Node, error) {
	node, exists := g.nodes[name]
	if !exists {
		return nil, fmt.Errorf("node not found: %s", name)
	}
	return node, nil
}

// SetFlow sets the execution flow
func (g *DefaultGraphProcessor) SetFlow(flow GraphFlow) error {
	if flow.StartNode == "" {
		return fmt.Errorf("start node cannot be empty")
	}

	g.flow = flow
	return nil
}

// processNodeOutput copies node data into the shared metadata seen by later nodes
func (g *DefaultGraphProcessor) processNodeOutput(nodeName string, nodeOutput NodeOutput, globalOutput *ProcessorOutput, nodeInput *NodeInput) {
	for key, value := range nodeOutput.Data {
		globalOutput.Metadata[fmt.Sprintf("%s_%s", nodeName, key)] = value
		nodeInput.Metadata[key] = value
	}
}

// getNextNode determines the next node based on flow edges and conditions
func (g *DefaultGraphProcessor) getNextNode(currentNode string, nodeOutput NodeOutput) string {
	edges, exists := g.flow.Edges[currentNode]
	if !exists || len(edges) == 0 {
		return NodeComplete
	}

	for _, edge := range sortEdgesByPriority(edges) {
		if evaluateCondition(edge.Condition, nodeOutput) {
			return edge.To
		}
	}

	return NodeComplete
}

// sortEdgesByPriority sorts edges by priority (lower number = higher priority)
func sortEdgesByPriority(edges []GraphEdge) []GraphEdge {
	sorted := make([]GraphEdge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

// evaluateCondition evaluates a condition against node output
func evaluateCondition(condition map[string]any, nodeOutput NodeOutput) bool {
	if len(condition) == 0 {
		return true // No condition = always true
	}

	for key, expectedValue := range condition {
		actualValue, exists := nodeOutput.Data[key]
		if !exists || actualValue != expectedValue {
			return false
		}
	}

	return true
}
