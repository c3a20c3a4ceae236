package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"garden_buddy/internal/logger"
)

// Keys a node may set in NodeOutput.Data that are lifted into ProcessorOutput.
// Any other key is handed to later nodes as metadata.
const (
	DataResponse     = "response"
	DataRule         = "rule"
	DataResponseType = "response_type"
)

// FlowComplete ends a flow when used as an edge target
const FlowComplete = "complete"

// pipeline walks one turn through the registered nodes along the flow edges
type pipeline struct {
	nodes map[string]Node
	flow  GraphFlow
}

// NewGraphProcessor creates a new graph processor
func NewGraphProcessor(config Config) GraphProcessor {
	return &pipeline{
		nodes: make(map[string]Node),
		flow:  withSortedEdges(config.Graph.DefaultFlow),
	}
}

// Execute runs the turn from the start node until a node completes it or the
// flow runs out of edges. A node error aborts the turn; NodeOutput.Error is
// recorded under "errors" and the turn goes on.
func (p *pipeline) Execute(ctx context.Context, input ProcessorInput) (*ProcessorOutput, error) {
	if input.Session == nil {
		return nil, errors.New("session cannot be nil")
	}
	started := time.Now()
	userID := input.Session.UserID

	in := NodeInput{
		UserMessage: input.UserMessage,
		Session:     input.Session,
		Metadata:    make(map[string]any),
	}
	out := &ProcessorOutput{Metadata: make(map[string]any)}

	var (
		path    []string
		soft    []string
		timings = make(map[string]int64)
		limit   = 2*len(p.nodes) + 1
	)
	for name := p.flow.StartNode; name != "" && name != FlowComplete; {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("turn cancelled before %s: %w", name, err)
		}
		if len(path) >= limit {
			return nil, fmt.Errorf("flow did not complete within %d steps: %v", limit, path)
		}
		node, ok := p.nodes[name]
		if !ok {
			return nil, fmt.Errorf("node not found: %s", name)
		}
		path = append(path, name)

		nodeStart := time.Now()
		res, err := node.Execute(ctx, in)
		timings[name] = time.Since(nodeStart).Milliseconds()
		if err != nil {
			logger.Error().Err(err).Str("node", name).Str("user_id", userID).Msg("Node failed")
			return nil, fmt.Errorf("node %s: %w", name, err)
		}
		if res.Error != nil {
			logger.Warn().Err(res.Error).Str("node", name).Str("user_id", userID).Msg("Node reported a problem")
			soft = append(soft, res.Error.Error())
		}

		lift(name, res.Data, out, &in)
		if res.Complete {
			break
		}
		name = res.NextNode
		if name == "" {
			name = p.next(path[len(path)-1], res)
		}
	}

	out.ProcessingTime = time.Since(started).Milliseconds()
	out.Metadata["execution_path"] = path
	out.Metadata["node_timings_ms"] = timings
	if len(soft) > 0 {
		out.Metadata["errors"] = soft
	}

	logger.Debug().
		Str("user_id", userID).
		Strs("path", path).
		Str("rule", out.Rule).
		Int64("processing_ms", out.ProcessingTime).
		Msg("Turn processed")
	return out, nil
}

// AddNode registers a node under its name, replacing any node of the same name
func (p *pipeline) AddNode(node Node) error {
	if node == nil {
		return errors.New("node cannot be nil")
	}
	name := node.GetName()
	if name == "" {
		return errors.New("node name cannot be empty")
	}
	p.nodes[name] = node
	return nil
}

// GetNode retrieves a node by name
func (p *pipeline) GetNode(name string) (Node, error) {
	node, ok := p.nodes[name]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", name)
	}
	return node, nil
}

// SetFlow replaces the flow
func (p *pipeline) SetFlow(flow GraphFlow) error {
	if flow.StartNode == "" {
		return errors.New("start node cannot be empty")
	}
	p.flow = withSortedEdges(flow)
	return nil
}

// lift copies the reserved keys into the turn output and everything else into
// the metadata seen by later nodes, prefixed by node name in the output.
func lift(node string, data map[string]any, out *ProcessorOutput, in *NodeInput) {
	for key, value := range data {
		s, isString := value.(string)
		switch {
		case key == DataResponse && isString:
			out.Response, in.Response = s, s
		case key == DataRule && isString:
			out.Rule, in.Rule = s, s
		case key == DataResponseType && isString:
			out.ResponseType = s
		case key == DataResponse, key == DataRule, key == DataResponseType:
		default:
			out.Metadata[node+"_"+key] = value
			in.Metadata[key] = value
		}
	}
}

// next picks the first edge whose condition matches the node's data. With no
// match the lowest-priority-number edge wins; with no edges the turn is done.
func (p *pipeline) next(current string, res NodeOutput) string {
	edges := p.flow.Edges[current]
	if len(edges) == 0 {
		return FlowComplete
	}
	for _, e := range edges {
		if matches(e.Condition, res.Data) {
			return e.To
		}
	}
	return edges[0].To
}

func matches(condition, data map[string]any) bool {
	for key, want := range condition {
		got, ok := data[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// withSortedEdges copies flow with each node's edges ordered by priority
func withSortedEdges(flow GraphFlow) GraphFlow {
	sorted := GraphFlow{StartNode: flow.StartNode, Edges: make(map[string][]GraphEdge, len(flow.Edges))}
	for from, edges := range flow.Edges {
		edges = slices.Clone(edges)
		slices.SortStableFunc(edges, func(a, b GraphEdge) int { return a.Priority - b.Priority })
		sorted.Edges[from] = edges
	}
	return sorted
}
