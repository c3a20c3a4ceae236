package wizard

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type questions map[string][]string

func (q questions) DiagnosticQuestions(category string) ([]string, bool) {
	qs, ok := q[category]
	return qs, ok && len(qs) > 0
}

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestStartUnknownCategory(t *testing.T) {
	s, step, err := Start(questions{}, "rot")
	assert.True(t, errors.Is(err, ErrUnknownCategory))
	assert.False(t, s.Active)
	assert.Empty(t, step.Reply)
}

func TestFullRun(t *testing.T) {
	src := questions{"yellow_leaves": {"Top or bottom?", "Wet or dry?"}}

	s, step, err := Start(src, "yellow_leaves")
	require.NoError(t, err)
	assert.True(t, s.Active)
	assert.Equal(t, "📋 **Question 1/2:**\nTop or bottom?", step.Reply)

	s, step = s.Answer("bottom", now)
	assert.True(t, s.Active)
	assert.Equal(t, 1, s.Step)
	assert.Equal(t, "📋 **Question 2/2:**\nWet or dry?", step.Reply)
	assert.Nil(t, step.Issue)

	s, step = s.Answer("soggy", now)
	assert.False(t, s.Active)
	require.NotNil(t, step.Issue)
	assert.Equal(t, "yellow_leaves", step.Issue.Type)
	assert.Equal(t, now, step.Issue.Date)
	require.Len(t, step.Issue.Details, 2)
	assert.Equal(t, "soggy", step.Issue.Details[1].Answer)

	want := "✅ **Diagnostic Complete**\n\nHere's what I've recorded:\n\n" +
		"• **Q:** Top or bottom?\n  **A:** bottom\n\n" +
		"• **Q:** Wet or dry?\n  **A:** soggy\n\n" +
		"I've saved this to your garden history. Based on these symptoms, check the **yellow leaves** section in the Knowledge Base or ask me specifically about potential causes like \"pests\" or \"diseases\"."
	assert.Equal(t, want, step.Reply)
}

func TestAnswerDoesNotMutate(t *testing.T) {
	s, _, err := Start(questions{"pests": {"a?", "b?", "c?"}}, "pests")
	require.NoError(t, err)

	s1, _ := s.Answer("one", now)
	_, _ = s1.Answer("two", now)
	_, _ = s1.Answer("other", now)

	assert.Equal(t, 0, s.Step)
	assert.Empty(t, s.Answers)
	assert.Len(t, s1.Answers, 1)
}

func TestIdleAnswerIsNoop(t *testing.T) {
	s, step := Idle.Answer("hello", now)
	assert.False(t, s.Active)
	assert.Nil(t, step.Issue)
}

func TestWizardTerminates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "n")
		qs := make([]string, n)
		for i := range qs {
			qs[i] = fmt.Sprintf("q%d", i)
		}
		s, _, err := Start(questions{"c": qs}, "c")
		if err != nil {
			rt.Fatalf("start: %v", err)
		}

		issues := 0
		var last Step
		for i := 0; i < n; i++ {
			if !s.Active {
				rt.Fatalf("wizard went idle after %d of %d answers", i, n)
			}
			s, last = s.Answer(fmt.Sprintf("a%d", i), now)
			if last.Issue != nil {
				issues++
			}
		}
		if s.Active {
			rt.Fatalf("wizard still active after %d answers", n)
		}
		if issues != 1 {
			rt.Fatalf("expected exactly one issue, got %d", issues)
		}
		if len(last.Issue.Details) != n {
			rt.Fatalf("issue has %d answers, want %d", len(last.Issue.Details), n)
		}
	})
}

func TestMenu(t *testing.T) {
	assert.Equal(t, NotLoaded, Menu(nil))
	got := Menu([]string{"pests", "wilting"})
	assert.Contains(t, got, Intro)
	assert.Contains(t, got, "\n• pests\n• wilting")
}
