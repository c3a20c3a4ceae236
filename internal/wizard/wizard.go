// Package wizard implements the diagnostic question flow as a value-typed
// state machine. Start and Answer never mutate their input.
package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"garden_buddy/pkg"
)

// ErrUnknownCategory is returned by Start for a category with no questions
var ErrUnknownCategory = errors.New("unknown diagnostic category")

// Intro is shown when the wizard is opened without a category
const Intro = "🩺 **Diagnostic Wizard**\nI can help identify issues. What type of problem are you seeing?"

// NotLoaded is shown when there is no diagnostic data to run
const NotLoaded = "⚠️ Knowledge base is loading... please try again in a few seconds."

// State is Idle when Active is false
type State struct {
	Active    bool
	Category  string
	Step      int
	Questions []string
	Answers   []pkg.QA
}

// Idle is the zero state
var Idle = State{}

// Step is the outcome of a transition
type Step struct {
	Reply string
	// Issue is set on the transition back to Idle
	Issue *pkg.Issue
}

// QuestionSource looks up the questions of a category
type QuestionSource interface {
	DiagnosticQuestions(category string) ([]string, bool)
}

// Start enters Active at step 0 and emits the first question
func Start(src QuestionSource, category string) (State, Step, error) {
	questions, ok := src.DiagnosticQuestions(category)
	if !ok {
		return Idle, Step{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	s := State{
		Active:    true,
		Category:  category,
		Questions: append([]string(nil), questions...),
	}
	return s, Step{Reply: s.prompt()}, nil
}

func (s State) prompt() string {
	return fmt.Sprintf("📋 **Question %d/%d:**\n%s", s.Step+1, len(s.Questions), s.Questions[s.Step])
}

// Answer records message against the current question. After the last
// question it returns Idle together with the finished Issue.
func (s State) Answer(message string, now time.Time) (State, Step) {
	if !s.Active || s.Step >= len(s.Questions) {
		return Idle, Step{}
	}

	next := s
	next.Answers = append(append([]pkg.QA(nil), s.Answers...), pkg.QA{
		Question: s.Questions[s.Step],
		Answer:   message,
	})
	next.Step++

	if next.Step < len(next.Questions) {
		return next, Step{Reply: next.prompt()}
	}

	issue := &pkg.Issue{Type: s.Category, Date: now, Details: next.Answers}
	return Idle, Step{Reply: Summary(s.Category, next.Answers), Issue: issue}
}

// Summary echoes every answer and points at the matching knowledge section
func Summary(category string, answers []pkg.QA) string {
	lines := make([]string, len(answers))
	for i, qa := range answers {
		lines[i] = fmt.Sprintf("• **Q:** %s\n  **A:** %s", qa.Question, qa.Answer)
	}
	return "✅ **Diagnostic Complete**\n\nHere's what I've recorded:\n\n" +
		strings.Join(lines, "\n\n") +
		fmt.Sprintf("\n\nI've saved this to your garden history. Based on these symptoms, check the **%s** section in the Knowledge Base or ask me specifically about potential causes like \"pests\" or \"diseases\".",
			strings.ReplaceAll(category, "_", " "))
}

// Menu lists the categories a user can start with /diagnose
func Menu(categories []string) string {
	if len(categories) == 0 {
		return NotLoaded
	}
	var b strings.Builder
	b.WriteString(Intro)
	b.WriteString("\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "\n• %s", c)
	}
	b.WriteString("\n\nStart with /diagnose [category]")
	return b.String()
}
