package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"garden_buddy/internal/breaker"
	"garden_buddy/internal/logger"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const systemTemplate = `You are Garden Buddy, a friendly UK gardening expert assistant.

{knowledge}

**Instructions:**
- Answer using the knowledge base when relevant
- ALWAYS prioritize user-taught knowledge over baseline knowledge
- Be conversational, warm, and encouraging
- Use UK spellings and terminology (courgette not zucchini, aubergine not eggplant)
- If the user has taught you specific information about their garden, reference it naturally
- Keep responses concise but helpful (2-4 paragraphs max)
- Use emojis sparingly and naturally
- If you don't have specific information in the knowledge base, use general gardening knowledge but mention the user can teach you specifics

**User's Garden Context:**
{teachings}

**Current Plants:**
{plants}

Remember: You can learn! If the user teaches you something new, acknowledge it and offer to remember it.`

// Prompt is what one advice call knows about the user
type Prompt struct {
	Message   string
	Knowledge string
	Teachings []string
	Plants    []string
}

func (p Prompt) variables() map[string]any {
	return map[string]any{
		"message":   p.Message,
		"knowledge": p.Knowledge,
		"teachings": bulletList(p.Teachings, "No garden details taught yet"),
		"plants":    bulletList(p.Plants, "No plants added yet"),
	}
}

func bulletList(items []string, empty string) string {
	if len(items) == 0 {
		return "- " + empty
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// Advisor answers free-form questions through an eino chain: template -> chat
// model. Models that support tool calling get the garden tools instead and run
// a short tool loop.
type Advisor struct {
	chain    compose.Runnable[map[string]any, *schema.Message]
	template prompt.ChatTemplate
	model    model.ToolCallingChatModel
	tools    map[string]tool.InvokableTool
	breaker  *breaker.Breaker
	timeout  time.Duration
}

// NewAdvisor creates a new advisor for the configured provider
func NewAdvisor(ctx context.Context, cfg Config, tools ...tool.InvokableTool) (*Advisor, error) {
	m, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewAdvisorWithModel(ctx, m, cfg, tools...)
}

// NewAdvisorWithModel wires an existing chat model into the advice chain
func NewAdvisorWithModel(ctx context.Context, m model.BaseChatModel, cfg Config, tools ...tool.InvokableTool) (*Advisor, error) {
	template := prompt.FromMessages(schema.FString,
		schema.SystemMessage(systemTemplate),
		schema.UserMessage("{message}"),
	)
	a := &Advisor{
		template: template,
		breaker:  breaker.New("llm", cfg.Breaker),
		timeout:  cfg.Timeout,
	}

	if tm, ok := m.(model.ToolCallingChatModel); ok && len(tools) > 0 {
		bound, err := bindTools(ctx, tm, tools)
		if err != nil {
			return nil, err
		}
		a.model = bound
		a.tools = make(map[string]tool.InvokableTool, len(tools))
		for _, t := range tools {
			info, err := t.Info(ctx)
			if err != nil {
				return nil, fmt.Errorf("error reading tool info: %w", err)
			}
			a.tools[info.Name] = t
		}
		return a, nil
	}

	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(template).
		AppendChatModel(m).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating eino chain: %w", err)
	}
	a.chain = chain
	return a, nil
}

func bindTools(ctx context.Context, m model.ToolCallingChatModel, tools []tool.InvokableTool) (model.ToolCallingChatModel, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("error reading tool info: %w", err)
		}
		infos = append(infos, info)
	}
	bound, err := m.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("error binding tools: %w", err)
	}
	return bound, nil
}

// generate runs the plain chain, or the tool loop when tools are bound
func (a *Advisor) generate(ctx context.Context, vars map[string]any) (*schema.Message, error) {
	if a.model == nil {
		return a.chain.Invoke(ctx, vars)
	}

	msgs, err := a.template.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("error rendering prompt: %w", err)
	}
	for step := 0; step < maxToolSteps; step++ {
		reply, err := a.model.Generate(ctx, msgs)
		if err != nil {
			return nil, err
		}
		if reply == nil || len(reply.ToolCalls) == 0 {
			return reply, nil
		}
		msgs = append(msgs, reply)
		for _, call := range reply.ToolCalls {
			msgs = append(msgs, schema.ToolMessage(a.runTool(ctx, call), call.ID))
		}
	}
	return a.model.Generate(ctx, msgs)
}

// runTool never fails the reply; errors go back to the model as text
func (a *Advisor) runTool(ctx context.Context, call schema.ToolCall) string {
	t, ok := a.tools[call.Function.Name]
	if !ok {
		logger.Warn().Str("tool", call.Function.Name).Msg("Model asked for an unknown tool")
		return fmt.Sprintf("unknown tool %q", call.Function.Name)
	}
	out, err := t.InvokableRun(ctx, call.Function.Arguments)
	if err != nil {
		logger.Warn().Err(err).Str("tool", call.Function.Name).Msg("Tool call failed")
		return fmt.Sprintf("tool error: %v", err)
	}
	return out
}

// Advise returns the model's reply. Any failure, including an empty reply or
// an open circuit, is returned as an error so the caller can fall through.
func (a *Advisor) Advise(ctx context.Context, p Prompt) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := a.breaker.Execute(ctx, func() (interface{}, error) {
		return a.generate(ctx, p.variables())
	})
	if err != nil {
		if errors.Is(err, breaker.ErrOpen) {
			logger.Debug().Msg("LLM circuit open, skipping")
		}
		return "", fmt.Errorf("llm call failed: %w", err)
	}

	msg, ok := result.(*schema.Message)
	if !ok || msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("llm returned an empty reply")
	}

	logger.Debug().
		Dur("elapsed", time.Since(start)).
		Int("reply_length", len(msg.Content)).
		Msg("LLM reply received")
	return msg.Content, nil
}
