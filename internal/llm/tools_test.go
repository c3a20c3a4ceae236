package llm

import (
	"context"
	"testing"

	"garden_buddy/internal/garden"
	"garden_buddy/internal/knowledge"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toolModel asks for each scripted tool call in turn, then answers
type toolModel struct {
	calls  []schema.ToolCall
	answer string
	bound  []*schema.ToolInfo
	seen   [][]*schema.Message
}

func (m *toolModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.seen = append(m.seen, in)
	if step := len(m.seen) - 1; step < len(m.calls) {
		return schema.AssistantMessage("", []schema.ToolCall{m.calls[step]}), nil
	}
	return schema.AssistantMessage(m.answer, nil), nil
}

func (m *toolModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(m.answer, nil)}), nil
}

func (m *toolModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.bound = tools
	return m, nil
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}}
}

func TestPlantInfoTool(t *testing.T) {
	ctx := context.Background()
	pt, err := PlantInfoTool(garden.DefaultCatalog())
	require.NoError(t, err)

	info, err := pt.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "plant_info", info.Name)

	out, err := pt.InvokableRun(ctx, `{"name":"Tomatoes"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "🍅 tomato")
	assert.Contains(t, out, "days to harvest: 60")

	out, err = pt.InvokableRun(ctx, `{"name":"triffid"}`)
	require.NoError(t, err)
	assert.Equal(t, `No catalog entry for "triffid".`, out)
}

func TestKnowledgeSearchTool(t *testing.T) {
	ctx := context.Background()
	kt, err := KnowledgeSearchTool(knowledge.NewStore(knowledge.NewBaseline(knowledge.Fallback()), nil, 0), 2)
	require.NoError(t, err)

	out, err := kt.InvokableRun(ctx, `{"query":"slugs eating seedlings"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "slugs")

	out, err = kt.InvokableRun(ctx, `{"query":"quantum"}`)
	require.NoError(t, err)
	assert.Equal(t, `Nothing in the knowledge base about "quantum".`, out)
}

func TestAdviseRunsToolLoop(t *testing.T) {
	ctx := context.Background()
	tools, err := GardenTools(garden.DefaultCatalog(), knowledge.NewBaseline(knowledge.Fallback()))
	require.NoError(t, err)

	tm := &toolModel{
		calls: []schema.ToolCall{
			toolCall("call-1", "plant_info", `{"name":"basil"}`),
			toolCall("call-2", "weed_killer", `{}`),
		},
		answer: "Basil loves full sun.",
	}
	a, err := NewAdvisorWithModel(ctx, tm, Config{}, tools...)
	require.NoError(t, err)
	require.Len(t, tm.bound, 2)

	got, err := a.Advise(ctx, Prompt{Message: "does basil like sun?"})
	require.NoError(t, err)
	assert.Equal(t, "Basil loves full sun.", got)

	require.Len(t, tm.seen, 3)
	second := tm.seen[1]
	require.Len(t, second, 4)
	toolMsg := second[3]
	assert.Equal(t, schema.Tool, toolMsg.Role)
	assert.Equal(t, "call-1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, "basil")

	last := tm.seen[2]
	assert.Equal(t, `unknown tool "weed_killer"`, last[len(last)-1].Content)
}

func TestAdviseStopsAfterMaxToolSteps(t *testing.T) {
	ctx := context.Background()
	tools, err := GardenTools(garden.DefaultCatalog(), knowledge.NewBaseline(nil))
	require.NoError(t, err)

	loop := toolCall("call", "plant_info", `{"name":"mint"}`)
	tm := &toolModel{calls: []schema.ToolCall{loop, loop, loop, loop, loop}}
	a, err := NewAdvisorWithModel(ctx, tm, Config{}, tools...)
	require.NoError(t, err)

	_, err = a.Advise(ctx, Prompt{Message: "mint?"})
	assert.Error(t, err, "a reply that is still calling tools has no content")
	assert.Len(t, tm.seen, maxToolSteps+1)
}

func TestPlainModelIgnoresTools(t *testing.T) {
	ctx := context.Background()
	tools, err := GardenTools(garden.DefaultCatalog(), knowledge.NewBaseline(nil))
	require.NoError(t, err)

	fm := &fakeModel{reply: "Water in the morning."}
	a, err := NewAdvisorWithModel(ctx, fm, Config{}, tools...)
	require.NoError(t, err)

	got, err := a.Advise(ctx, Prompt{Message: "when to water?"})
	require.NoError(t, err)
	assert.Equal(t, "Water in the morning.", got)
}
