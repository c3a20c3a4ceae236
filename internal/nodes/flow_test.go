package nodes

import (
	"context"
	"testing"

	"garden_buddy/internal/conversation"
	"garden_buddy/internal/core"
	"garden_buddy/internal/style"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chattyFixture(formality string) *fixture {
	f := newFixture()
	c := f.s.Context
	c.Profile.Formality = formality
	c.LastResponseType = conversation.ResponseAdvice
	c.TrackFlow(conversation.ResponseAdvice, testStart)
	c.TrackFlow(conversation.ResponseAdvice, testStart)
	return f
}

func TestFlowAddsChattyLine(t *testing.T) {
	tests := map[string]struct {
		formality string
		want      string
	}{
		"casual":  {style.FormalityCasual, chattyAddons[style.FormalityCasual][1]},
		"formal":  {style.FormalityFormal, chattyAddons[style.FormalityFormal][1]},
		"neutral": {style.FormalityNeutral, chattyAddons[style.FormalityFormal][1]},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := chattyFixture(tt.formality)
			f.rand.Floats = []float64{0.2}
			f.rand.Ints = []int{1}

			out, err := NewFlowNode().Execute(context.Background(), core.NodeInput{Response: "Base.", Session: f.s})
			require.NoError(t, err)

			assert.True(t, out.Complete)
			assert.True(t, f.s.Context.IsChatty)
			assert.Equal(t, "Base."+tt.want, out.Data["response"])
		})
	}
}

func TestFlowSkipsAddonAboveGate(t *testing.T) {
	f := chattyFixture(style.FormalityCasual)
	f.rand.Floats = []float64{0.3}

	out, err := NewFlowNode().Execute(context.Background(), core.NodeInput{Response: "Base.", Session: f.s})
	require.NoError(t, err)

	assert.Equal(t, "Base.", out.Data["response"])
}

func TestFlowQuietUsersGetNoAddon(t *testing.T) {
	f := newFixture()
	f.rand.Floats = []float64{0.0}

	out, err := NewFlowNode().Execute(context.Background(), core.NodeInput{Response: "Base.", Session: f.s})
	require.NoError(t, err)

	assert.False(t, f.s.Context.IsChatty)
	assert.Equal(t, "Base.", out.Data["response"])
	require.Len(t, f.s.Context.FlowPattern, 1)
	assert.Equal(t, conversation.MoodNeutral, f.s.Context.FlowPattern[0].Mood)
}

func TestStyleNodeAdaptsReply(t *testing.T) {
	f := newFixture()
	f.s.Context.Profile.Formality = style.FormalityFormal

	out, err := NewStyleNode().Execute(context.Background(), core.NodeInput{Response: "You can't overwater cacti? It's easy to.", Session: f.s})
	require.NoError(t, err)

	assert.Equal(t, "You cannot overwater cacti? It is easy to.", out.Data["response"])
	assert.Equal(t, true, out.Data["adapted"])
}

func TestAnalyzeNodeLearnsStyle(t *testing.T) {
	f := newFixture()

	out, err := NewAnalyzeNode(Services{}).Execute(context.Background(), core.NodeInput{
		UserMessage: "hey, gonna plant some zucchini",
		Session:     f.s,
	})
	require.NoError(t, err)

	assert.Equal(t, style.FormalityCasual, f.s.Context.Profile.Formality)
	assert.True(t, f.s.Context.Profile.UsesSlang)
	assert.Equal(t, style.FormalityCasual, out.Data["style_key"])
}

func TestPipelineMirrorsRegion(t *testing.T) {
	f := newFixture()

	out := run(t, Services{}, f.s, "what colour fertiliser should I use for zucchini?")

	assert.NotContains(t, out.Response, "zucchini")
	assert.Equal(t, style.RegionUK, f.s.Context.Profile.Region)
	assert.Equal(t, []string{"analyze", "routing", "style", "flow"}, out.Metadata["execution_path"])
}
