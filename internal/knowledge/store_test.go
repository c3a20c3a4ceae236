package knowledge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"garden_buddy/internal/storage"
	"garden_buddy/pkg"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testDoc() *pkg.KnowledgeDocument {
	return &pkg.KnowledgeDocument{
		Version:     "1.0.0",
		Region:      "UK",
		LastUpdated: "2025-03-01",
		Entries: []pkg.KnowledgeEntry{
			{
				ID:          "w1",
				Topic:       "watering tomatoes",
				Category:    "watering",
				QuickAnswer: "Water deeply twice a week.",
				Details:     map[string]any{"frequency": "twice weekly"},
			},
			{
				ID:          "p1",
				Topic:       "aphids",
				Category:    "pests",
				QuickAnswer: "Squash them by hand.",
			},
		},
		DiagnosticQuestions: map[string][]string{
			"wilting": {"Does it recover at night?"},
			"pests":   {"What do they look like?", "Where are they?"},
			"empty":   {},
		},
	}
}

func TestTerms(t *testing.T) {
	got := Terms("How do I water my Tomatoes?!")
	if diff := cmp.Diff([]string{"water", "tomatoes"}, got); diff != "" {
		t.Errorf("Terms mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, Terms("how do I?"))
}

func TestSearchScoring(t *testing.T) {
	s := NewStore(NewBaseline(testDoc()), nil, 0)

	hits := s.Search("how do I water my tomatoes", 3)
	require.Len(t, hits, 1)
	assert.Equal(t, "watering tomatoes", hits[0].Topic)
	assert.Equal(t, 10, hits[0].Relevance)
	assert.Equal(t, pkg.SourceBaseline, hits[0].Source)

	// exact topic match scores 10
	hits = s.Search("aphids", 3)
	require.Len(t, hits, 1)
	assert.Equal(t, 10, hits[0].Relevance)

	// a single content hit is below the threshold
	assert.Empty(t, s.Search("hand", 3))
	assert.Empty(t, s.Search("", 3))
}

func TestSearchCapsResults(t *testing.T) {
	s := NewStore(NewBaseline(nil), nil, 0)
	for i := 0; i < 5; i++ {
		s.AddUserTaught(pkg.KnowledgeEntry{Topic: "mulch", Question: "q", Answer: "a"})
	}
	assert.Len(t, s.Search("mulch", 3), 3)
	assert.Len(t, s.Search("mulch", 0), 5)
}

func TestUserTaughtWinsTies(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		word := rapid.StringMatching(`z[a-z]{2,7}`).Draw(rt, "word")
		doc := &pkg.KnowledgeDocument{Entries: []pkg.KnowledgeEntry{
			{Topic: word, Category: "misc", QuickAnswer: "baseline"},
		}}
		s := NewStore(NewBaseline(doc), []pkg.KnowledgeEntry{
			{Topic: word, Question: "q", Answer: "mine"},
		}, 0)

		hits := s.Search(word, 3)
		if len(hits) != 2 {
			rt.Fatalf("expected 2 hits, got %d", len(hits))
		}
		if hits[0].Source != pkg.SourceUserTaught {
			rt.Fatalf("baseline outranked user-taught for %q", word)
		}
		if hits[0].Relevance != hits[1].Relevance {
			rt.Fatalf("expected equal scores, got %d and %d", hits[0].Relevance, hits[1].Relevance)
		}
	})
}

func TestFormatAnswer(t *testing.T) {
	user := pkg.ScoredEntry{KnowledgeEntry: pkg.KnowledgeEntry{
		Topic: "my beds", Question: "how many beds", Answer: "three", Source: pkg.SourceUserTaught,
	}}
	assert.Equal(t, "💡 **From Your Garden:** my beds\n\nQ: how many beds\nA: three", FormatAnswer(user))

	base := pkg.ScoredEntry{KnowledgeEntry: pkg.KnowledgeEntry{
		Topic:       "compost",
		QuickAnswer: "Mix greens and browns.",
		Source:      pkg.SourceBaseline,
		Details:     map[string]any{"a": "x", "b": 5, "c": "y", "d": "z"},
	}}
	want := "📚 **Garden Buddy Knowledge:** compost\n\nMix greens and browns.\n\n**More Details:**\n• a: x\n• c: y"
	assert.Equal(t, want, FormatAnswer(base))

	base.QuickAnswer = ""
	assert.Empty(t, FormatAnswer(base))
}

func TestAIContextWithQuery(t *testing.T) {
	s := NewStore(NewBaseline(testDoc()), []pkg.KnowledgeEntry{
		{Topic: "aphids", Question: "what works", Answer: "soapy water"},
	}, 0)

	got := s.AIContext("aphids", 3)
	want := "# Garden Buddy Knowledge Base\n\n" +
		"Region: UK\nLast Updated: 2025-03-01\n\n" +
		"## Relevant Knowledge for \"aphids\":\n\n" +
		"### 1. aphids (User-Taught)\nQ: what works\nA: soapy water\n\n" +
		"### 2. aphids (Baseline - pests)\nSquash them by hand.\n\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AIContext mismatch (-want +got):\n%s", diff)
	}
}

func TestAIContextSummary(t *testing.T) {
	s := NewStore(NewBaseline(testDoc()), []pkg.KnowledgeEntry{{Topic: "x"}}, 0)
	got := s.AIContext("", 3)
	assert.Contains(t, got, "## Available Knowledge:\n- 2 baseline entries\n- 1 user-taught entries\n\n")
	assert.Contains(t, got, "### Categories:\n- pests: 1 entries\n- watering: 1 entries\n")

	empty := NewStore(nil, nil, 0)
	assert.Contains(t, empty.AIContext("", 3), "Region: UK\nLast Updated: N/A")
}

func TestDiagnostics(t *testing.T) {
	b := NewBaseline(testDoc())
	assert.Equal(t, []string{"pests", "wilting"}, b.Categories())
	assert.True(t, b.HasDiagnostics())

	qs, ok := b.DiagnosticQuestions("pests")
	assert.True(t, ok)
	assert.Len(t, qs, 2)

	_, ok = b.DiagnosticQuestions("empty")
	assert.False(t, ok)
	assert.False(t, NewBaseline(nil).HasDiagnostics())
}

func TestFallbackDocument(t *testing.T) {
	doc := Fallback()
	assert.NotEmpty(t, doc.Entries)
	b := NewBaseline(doc)
	assert.True(t, b.HasDiagnostics())

	hits := NewStore(b, nil, 0).Search("aphids", 3)
	require.NotEmpty(t, hits)
	assert.Equal(t, "aphids", hits[0].Topic)
}

func TestLoaderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":"2","region":"UK","entries":[{"topic":"kale","category":"greens","quick_answer":"Hardy."}],"diagnostic_questions":{"rot":["Smell?"]}}`))
	}))
	defer srv.Close()

	doc, err := NewLoader(srv.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", doc.Version)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "Hardy.", doc.Entries[0].QuickAnswer)
	assert.Equal(t, []string{"Smell?"}, doc.DiagnosticQuestions["rot"])
}

func TestLoaderFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := NewLoader(srv.URL, time.Second)
	_, err := l.Fetch(context.Background())
	assert.Error(t, err)

	doc := l.Load(context.Background())
	assert.Equal(t, len(Fallback().Entries), len(doc.Entries))

	assert.NotEmpty(t, NewLoader("", time.Second).Load(context.Background()).Entries)
}

func TestLoaderRejectsUnusableDocuments(t *testing.T) {
	tests := map[string]string{
		"no entries": `{"version":"broken"}`,
		"too large":  `{"version":"big","entries":[{"topic":"kale"}],"padding":"` + strings.Repeat("x", maxDocumentBytes) + `"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			l := NewLoader(srv.URL, 5*time.Second)
			_, err := l.Fetch(context.Background())
			assert.Error(t, err)

			doc := l.Load(context.Background())
			assert.Equal(t, len(Fallback().Entries), len(doc.Entries))
			assert.NotEmpty(t, NewBaseline(doc).Categories())
		})
	}
}

func TestUserTaughtPersistence(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore(0)
	keys := storage.Keys{Prefix: "test"}

	entries, err := LoadUserTaught(ctx, kv, keys, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	s := NewStore(nil, nil, 0)
	s.AddUserTaught(pkg.KnowledgeEntry{Topic: "beds", Question: "beds", Answer: "three raised"})
	require.NoError(t, SaveUserTaught(ctx, kv, keys, "u1", s))

	entries, err = LoadUserTaught(ctx, kv, keys, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "three raised", entries[0].Answer)
	assert.Equal(t, pkg.SourceUserTaught, entries[0].Source)
	assert.Equal(t, "general", entries[0].Category)
}
