package nodes

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"garden_buddy/internal/conversation"
	"garden_buddy/internal/core"
	"garden_buddy/internal/garden"
	"garden_buddy/internal/knowledge"
	"garden_buddy/internal/llm"
	"garden_buddy/internal/logger"
	"garden_buddy/internal/teaching"
	"garden_buddy/pkg"
)

var (
	questionWords = regexp.MustCompile(`(?i)how|when|should|help|problem|issue`)
	sunWords      = regexp.MustCompile(`(?i)sun|shade|light`)
	soilWords     = regexp.MustCompile(`(?i)soil|dirt|compost`)
	pestWords     = regexp.MustCompile(`(?i)pest|bug|insect|aphid|slug`)
	harvestWords  = regexp.MustCompile(`(?i)harvest|pick|ripe|ready`)
)

// turn is one message moving through the router
type turn struct {
	s     *core.Session
	msg   string
	lower string
	slash bool
	meta  map[string]any
}

// A rule either answers the turn or lets it fall through to the next rule.
// Rules may update the conversation context even when they fall through.
type rule struct {
	name   string
	handle func(ctx context.Context, t *turn) (string, bool)
}

// RoutingNode classifies the message and produces the base reply
type RoutingNode struct {
	svc      Services
	rules    []rule
	commands map[string]commandFunc
}

// NewRoutingNode creates a new routing node
func NewRoutingNode(svc Services) *RoutingNode {
	r := &RoutingNode{svc: svc}
	r.commands = r.commandTable()
	r.rules = []rule{
		{"wizard", r.wizardStep},
		{"mood", r.detectMood},
		{"implicit_teaching", r.implicitTeaching},
		{"llm", r.askAdvisor},
		{"knowledge", r.searchKnowledge},
		{"command", r.runCommand},
		{"plant", r.plantQuestion},
		{"keyword", r.keywordAdvice},
		{"cold_start", r.coldStart},
		{"default", r.fallback},
	}
	return r
}

// Execute runs the rules in order; the first one to answer wins
func (r *RoutingNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	s := input.Session
	t := &turn{
		s:     s,
		msg:   input.UserMessage,
		lower: strings.ToLower(input.UserMessage),
		slash: strings.HasPrefix(input.UserMessage, "/"),
		meta:  input.Metadata,
	}

	for _, rl := range r.rules {
		reply, ok := rl.handle(ctx, t)
		if !ok {
			continue
		}
		logger.Debug().Str("user_id", s.UserID).Str("rule", rl.name).Msg("Message routed")
		return core.NodeOutput{
			Data: map[string]any{
				core.DataResponse:     reply,
				core.DataRule:         rl.name,
				core.DataResponseType: s.Context.LastResponseType,
			},
			Complete: false,
		}, nil
	}
	return core.NodeOutput{Error: fmt.Errorf("no rule answered the message")}, nil
}

// GetName returns the node name
func (r *RoutingNode) GetName() string {
	return "routing"
}

// GetType returns the node type
func (r *RoutingNode) GetType() core.NodeType {
	return core.NodeTypeRouting
}

func (r *RoutingNode) wizardStep(_ context.Context, t *turn) (string, bool) {
	if !t.s.Wizard.Active {
		return "", false
	}
	next, step := t.s.Wizard.Answer(t.msg, t.s.Now())
	t.s.Wizard = next
	if step.Issue != nil {
		t.s.Garden.AddIssue(step.Issue.Type, step.Issue.Details)
	}
	t.s.Context.LastResponseType = conversation.ResponseWizard
	return step.Reply, true
}

func (r *RoutingNode) detectMood(_ context.Context, t *turn) (string, bool) {
	t.s.Context.UserMood = conversation.DetectMood(t.msg)
	return "", false
}

func (r *RoutingNode) implicitTeaching(_ context.Context, t *turn) (string, bool) {
	if t.slash {
		return "", false
	}
	ex, ok := teaching.ExtractImplicit(t.msg)
	if !ok {
		return "", false
	}

	s := t.s
	s.Garden.AddTeaching(ex.Text, pkg.TeachingAutoParsed, ex.Category)
	var limitNotice string
	if _, err := s.Garden.ApplyTeachingSideEffects(ex.Text); err != nil {
		logger.Debug().Err(err).Str("user_id", s.UserID).Msg("Plant not added from teaching")
		if errors.Is(err, garden.ErrPlantLimit) {
			limitNotice = "\n\n" + fmt.Sprintf(plantLimitReply, s.Garden.PlantLimit)
		}
	}
	s.Context.AddTopic(ex.Category)
	if ex.Plant != "" {
		s.Context.LastPlantMentioned = strings.ToLower(s.Garden.Catalog.Resolve(ex.Plant))
	}

	ack := acknowledge(s, s.Context.UserMood)
	followUp := smartFollowUp(s)
	s.Context.LastResponseType = conversation.ResponseTeaching
	if followUp != "" {
		return fmt.Sprintf("%s I've noted that down.\n\n%s", ack, followUp) + limitNotice, true
	}
	return fmt.Sprintf("%s That helps me understand your garden better!", ack) + limitNotice, true
}

func (r *RoutingNode) askAdvisor(ctx context.Context, t *turn) (string, bool) {
	if r.svc.Advisor == nil || t.slash {
		return "", false
	}
	s := t.s
	reply, err := r.svc.Advisor.Advise(ctx, llm.Prompt{
		Message:   t.msg,
		Knowledge: s.Knowledge.AIContext(t.msg, r.svc.contextEntries()),
		Teachings: teachingLines(s, 5),
		Plants:    plantLines(s),
	})
	if err != nil {
		logger.Warn().Err(err).Str("user_id", s.UserID).Msg("AI response failed, using local logic")
		return "", false
	}
	s.Context.LastResponseType = conversation.ResponseAI
	return reply, true
}

func (r *RoutingNode) searchKnowledge(_ context.Context, t *turn) (string, bool) {
	if t.slash {
		return "", false
	}
	results := t.s.Knowledge.Search(t.lower, r.svc.maxResults())
	if len(results) == 0 {
		return "", false
	}
	reply := knowledge.FormatAnswer(results[0])
	if reply == "" {
		return "", false
	}
	t.s.Context.LastResponseType = conversation.ResponseKnowledge
	t.s.Context.ConsecutiveQuestions = 0
	return reply, true
}

// runCommand answers every slash message, known or not
func (r *RoutingNode) runCommand(ctx context.Context, t *turn) (string, bool) {
	name, rest, ok := splitCommand(t.msg)
	if !ok {
		return "", false
	}
	cmd, known := r.commands[name]
	if !known {
		return unknownCommandReply, true
	}
	return cmd(ctx, t, rest), true
}

func (r *RoutingNode) plantQuestion(_ context.Context, t *turn) (string, bool) {
	s := t.s
	mentions := s.Garden.Catalog.DetectMentions(t.msg)
	if len(mentions) == 0 {
		return "", false
	}
	s.Context.LastPlantMentioned = mentions[len(mentions)-1]

	info, ok := s.Garden.Catalog.Lookup(mentions[0])
	if !ok || !questionWords.MatchString(t.lower) {
		return "", false
	}
	s.Context.LastPlantMentioned = mentions[0]
	return plantReply(s, info), true
}

func (r *RoutingNode) keywordAdvice(_ context.Context, t *turn) (string, bool) {
	c := t.s.Context
	c.LastResponseType = conversation.ResponseAdvice
	c.ConsecutiveQuestions = 0

	switch {
	case strings.Contains(t.lower, "water"):
		return variedResponse(t.s, CategoryWater), true
	case sunWords.MatchString(t.lower):
		return variedResponse(t.s, CategorySun), true
	case soilWords.MatchString(t.lower):
		return variedResponse(t.s, CategorySoil), true
	case pestWords.MatchString(t.lower):
		return variedResponse(t.s, CategoryPest), true
	case harvestWords.MatchString(t.lower):
		return variedResponse(t.s, CategoryHarvest), true
	}
	return "", false
}

func (r *RoutingNode) coldStart(_ context.Context, t *turn) (string, bool) {
	mem := t.s.Garden.Mem
	if len(mem.Teachings) == 0 && len(mem.Plants) == 0 {
		return coldStartReply, true
	}
	return "", false
}

func (r *RoutingNode) fallback(_ context.Context, t *turn) (string, bool) {
	followUp := smartFollowUp(t.s)
	reply := variedResponse(t.s, CategoryDefault)
	if followUp != "" {
		reply += "\n\n" + followUp
	}
	return reply, true
}
