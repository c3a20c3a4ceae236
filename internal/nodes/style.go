package nodes

import (
	"context"

	"garden_buddy/internal/core"
	"garden_buddy/internal/style"
)

// StyleNode rewrites the reply to mirror how the user writes
type StyleNode struct{}

// NewStyleNode creates a new style node
func NewStyleNode() *StyleNode {
	return &StyleNode{}
}

// Execute adapts input.Response to the session's language profile
func (n *StyleNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	adapted := style.Adapt(input.Response, input.Session.Context.Profile)
	return core.NodeOutput{
		Data: map[string]any{
			core.DataResponse: adapted,
			"adapted":         adapted != input.Response,
		},
	}, nil
}

// GetName returns the node name
func (n *StyleNode) GetName() string {
	return "style"
}

// GetType returns the node type
func (n *StyleNode) GetType() core.NodeType {
	return core.NodeTypeStyle
}
