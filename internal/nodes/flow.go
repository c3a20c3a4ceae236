package nodes

import (
	"context"

	"garden_buddy/internal/core"
	"garden_buddy/internal/style"
	"garden_buddy/pkg"
)

// FlowNode records the turn in the conversation flow and, for chatty users,
// sometimes adds a friendly closing line
type FlowNode struct{}

// NewFlowNode creates a new flow node
func NewFlowNode() *FlowNode {
	return &FlowNode{}
}

// Execute tracks the flow and finishes the graph
func (n *FlowNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	s := input.Session
	c := s.Context
	c.TrackFlow(c.LastResponseType, s.Now())

	reply := input.Response
	if c.IsChatty && s.Rand.Float64() < 0.3 {
		key := style.FormalityFormal
		if c.Profile.Formality == style.FormalityCasual {
			key = style.FormalityCasual
		}
		reply += pkg.Pick(s.Rand, chattyAddons[key])
	}

	return core.NodeOutput{
		Data: map[string]any{
			core.DataResponse: reply,
			"chatty":          c.IsChatty,
		},
		Complete: true,
	}, nil
}

// GetName returns the node name
func (n *FlowNode) GetName() string {
	return "flow"
}

// GetType returns the node type
func (n *FlowNode) GetType() core.NodeType {
	return core.NodeTypeFlow
}
