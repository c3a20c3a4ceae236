package core

import (
	"context"
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
	NodeTypeAnalyze NodeType = "analyze"
	NodeTypeRouting NodeType = "routing"
	NodeTypeStyle   NodeType = "style"
	NodeTypeFlow    NodeType = "flow"
)

// NodeInput contains the input data for a node
type NodeInput struct {
	UserMessage string         `json:"user_message"`
	Session     *Session       `json:"-"`
	Response    string         `json:"response,omitempty"`
	Rule        string         `json:"rule,omitempty"`
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
	UserMessage string   `json:"user_message"`
	Session     *Session `json:"-"`
}

// ProcessorOutput is the main output from the graph processor
type ProcessorOutput struct {
	Response       string         `json:"response"`
	Rule           string         `json:"rule,omitempty"`
	ResponseType   string         `json:"response_type,omitempty"`
	ProcessingTime int64          `json:"processing_time_ms"`
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

// Config holds all configuration for the graph processor
type Config struct {
	Graph GraphConfig `json:"graph"`
}

// GraphConfig holds graph flow configuration
type GraphConfig struct {
	DefaultFlow GraphFlow `json:"default_flow"`
}

// DefaultFlow is analyze -> routing -> style -> flow
func DefaultFlow() GraphFlow {
	return GraphFlow{
		StartNode: "analyze",
		Edges: map[string][]GraphEdge{
			"analyze": {{To: "routing", Priority: 1}},
			"routing": {{To: "style", Priority: 1}},
			"style":   {{To: "flow", Priority: 1}},
		},
	}
}
