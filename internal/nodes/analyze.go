package nodes

import (
	"context"

	"garden_buddy/internal/core"
	"garden_buddy/internal/logger"
)

// AnalyzeNode learns the user's writing style and stores explicit teachings
// before the message is routed
type AnalyzeNode struct {
	svc Services
}

// NewAnalyzeNode creates a new analyze node
func NewAnalyzeNode(svc Services) *AnalyzeNode {
	return &AnalyzeNode{svc: svc}
}

// Execute updates the language profile and captures /teach, /wrong and /why
func (a *AnalyzeNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	s := input.Session
	s.Context.Profile.Analyze(input.UserMessage)

	data := capture(s, a.svc, input.UserMessage)
	data["style_key"] = s.Context.Profile.StyleKey()

	logger.Debug().
		Str("user_id", s.UserID).
		Str("formality", s.Context.Profile.Formality).
		Str("region", s.Context.Profile.Region).
		Msg("Message analyzed")

	return core.NodeOutput{Data: data}, nil
}

// GetName returns the node name
func (a *AnalyzeNode) GetName() string {
	return "analyze"
}

// GetType returns the node type
func (a *AnalyzeNode) GetType() core.NodeType {
	return core.NodeTypeAnalyze
}
