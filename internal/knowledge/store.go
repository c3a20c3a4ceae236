package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"garden_buddy/pkg"

	"github.com/bytedance/sonic"
)

// DefaultMinScore is the lowest relevance a hit may have
const DefaultMinScore = 2

var stopWords = map[string]bool{
	"when": true, "should": true, "i": true, "how": true, "do": true, "what": true,
	"is": true, "a": true, "the": true, "in": true, "on": true, "to": true,
	"for": true, "my": true, "can": true, "get": true, "does": true, "of": true, "and": true,
}

var punctuation = regexp.MustCompile(`[?.,!]`)

// Terms tokenizes a query: lowercase, strip ?.,! and drop stop words and single letters
func Terms(query string) []string {
	cleaned := punctuation.ReplaceAllString(strings.ToLower(query), "")
	var terms []string
	for _, t := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(t) > 1 && !stopWords[t] {
			terms = append(terms, t)
		}
	}
	return terms
}

// Baseline is the shared, read-only knowledge document
type Baseline struct {
	doc     pkg.KnowledgeDocument
	content []string // precomputed lowercase search text per entry
}

// NewBaseline indexes doc. A nil doc yields an empty baseline.
func NewBaseline(doc *pkg.KnowledgeDocument) *Baseline {
	b := &Baseline{}
	if doc == nil {
		return b
	}
	b.doc = *doc
	b.content = make([]string, len(doc.Entries))
	for i := range b.doc.Entries {
		b.doc.Entries[i].Source = pkg.SourceBaseline
		b.content[i] = baselineContent(b.doc.Entries[i])
	}
	return b
}

func baselineContent(e pkg.KnowledgeEntry) string {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	// ConfigStd sorts map keys so the text is stable
	raw, err := sonic.ConfigStd.Marshal(details)
	if err != nil {
		raw = []byte("{}")
	}
	return strings.ToLower(fmt.Sprintf("%s %s %s", e.QuickAnswer, e.Category, raw))
}

func userContent(e pkg.KnowledgeEntry) string {
	return strings.ToLower(fmt.Sprintf("%s %s %s", e.Question, e.Answer, e.Category))
}

// Len is the number of baseline entries
func (b *Baseline) Len() int { return len(b.doc.Entries) }

// Region of the document, UK when unset
func (b *Baseline) Region() string {
	if b.doc.Region == "" {
		return "UK"
	}
	return b.doc.Region
}

// Categories lists diagnostic categories in sorted order
func (b *Baseline) Categories() []string {
	cats := make([]string, 0, len(b.doc.DiagnosticQuestions))
	for c, qs := range b.doc.DiagnosticQuestions {
		if len(qs) > 0 {
			cats = append(cats, c)
		}
	}
	sort.Strings(cats)
	return cats
}

// DiagnosticQuestions returns the wizard questions for category
func (b *Baseline) DiagnosticQuestions(category string) ([]string, bool) {
	qs, ok := b.doc.DiagnosticQuestions[category]
	return qs, ok && len(qs) > 0
}

// HasDiagnostics reports whether the wizard can run at all
func (b *Baseline) HasDiagnostics() bool {
	return len(b.Categories()) > 0
}

// Store searches the shared baseline together with one user's taught entries
type Store struct {
	baseline   *Baseline
	userTaught []pkg.KnowledgeEntry
	minScore   int
}

// NewStore creates a per-user view over baseline
func NewStore(baseline *Baseline, userTaught []pkg.KnowledgeEntry, minScore int) *Store {
	if baseline == nil {
		baseline = NewBaseline(nil)
	}
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	s := &Store{baseline: baseline, minScore: minScore}
	for _, e := range userTaught {
		s.AddUserTaught(e)
	}
	return s
}

// Baseline returns the shared document
func (s *Store) Baseline() *Baseline { return s.baseline }

// AddUserTaught appends a user-taught entry
func (s *Store) AddUserTaught(e pkg.KnowledgeEntry) {
	e.Source = pkg.SourceUserTaught
	if e.Category == "" {
		e.Category = "general"
	}
	s.userTaught = append(s.userTaught, e)
}

// UserTaught returns the user's entries in insertion order
func (s *Store) UserTaught() []pkg.KnowledgeEntry {
	return s.userTaught
}

func score(terms []string, topic, content string) int {
	total := 0
	for _, term := range terms {
		switch {
		case topic == term:
			total += 10
		case strings.Contains(topic, term):
			total += 5
		case strings.Contains(content, term):
			total += 1
		}
	}
	return total
}

// Search scores every entry against query. User-taught entries are pooled
// first and the sort is stable, so they win ties against the baseline.
func (s *Store) Search(query string, maxResults int) []pkg.ScoredEntry {
	terms := Terms(query)
	if len(terms) == 0 {
		return nil
	}

	var results []pkg.ScoredEntry
	for _, e := range s.userTaught {
		if sc := score(terms, strings.ToLower(e.Topic), userContent(e)); sc >= s.minScore {
			results = append(results, pkg.ScoredEntry{KnowledgeEntry: e, Relevance: sc})
		}
	}
	for i, e := range s.baseline.doc.Entries {
		if sc := score(terms, strings.ToLower(e.Topic), s.baseline.content[i]); sc >= s.minScore {
			results = append(results, pkg.ScoredEntry{KnowledgeEntry: e, Relevance: sc})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Relevance > results[j].Relevance })
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// maxDetails and maxDetailLen bound the details shown with a baseline answer
const (
	maxDetails   = 3
	maxDetailLen = 200
)

// FormatAnswer renders a hit for the chat. It returns "" for a baseline entry
// without a quick answer.
func FormatAnswer(e pkg.ScoredEntry) string {
	if e.Source == pkg.SourceUserTaught {
		return fmt.Sprintf("💡 **From Your Garden:** %s\n\nQ: %s\nA: %s", e.Topic, e.Question, e.Answer)
	}
	if e.QuickAnswer == "" {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📚 **Garden Buddy Knowledge:** %s\n\n%s", e.Topic, e.QuickAnswer)
	if len(e.Details) > 0 {
		b.WriteString("\n\n**More Details:**")
		keys := sortedKeys(e.Details)
		if len(keys) > maxDetails {
			keys = keys[:maxDetails]
		}
		for _, k := range keys {
			if v, ok := e.Details[k].(string); ok && utf8.RuneCountInString(v) < maxDetailLen {
				fmt.Fprintf(&b, "\n• %s: %s", k, v)
			}
		}
	}
	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AIContext renders the knowledge section of an LLM system prompt.
// With a query it lists the relevant entries; without one it summarises the pools.
func (s *Store) AIContext(query string, maxEntries int) string {
	var b strings.Builder
	b.WriteString("# Garden Buddy Knowledge Base\n\n")
	fmt.Fprintf(&b, "Region: %s\n", s.baseline.Region())
	lastUpdated := s.baseline.doc.LastUpdated
	if lastUpdated == "" {
		lastUpdated = "N/A"
	}
	fmt.Fprintf(&b, "Last Updated: %s\n\n", lastUpdated)

	if query != "" {
		hits := s.Search(query, maxEntries)
		if len(hits) == 0 {
			return b.String()
		}
		fmt.Fprintf(&b, "## Relevant Knowledge for %q:\n\n", query)
		for i, e := range hits {
			if e.Source == pkg.SourceUserTaught {
				fmt.Fprintf(&b, "### %d. %s (User-Taught)\nQ: %s\nA: %s\n\n", i+1, e.Topic, e.Question, e.Answer)
				continue
			}
			fmt.Fprintf(&b, "### %d. %s (Baseline - %s)\n%s\n", i+1, e.Topic, e.Category, e.QuickAnswer)
			if len(e.Details) > 0 {
				b.WriteString("\nDetails:\n")
				for _, k := range sortedKeys(e.Details) {
					fmt.Fprintf(&b, "- %s: %v\n", k, e.Details[k])
				}
			}
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString("## Available Knowledge:\n")
	fmt.Fprintf(&b, "- %d baseline entries\n", s.baseline.Len())
	fmt.Fprintf(&b, "- %d user-taught entries\n\n", len(s.userTaught))

	counts := make(map[string]int)
	for _, e := range s.baseline.doc.Entries {
		counts[e.Category]++
	}
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	b.WriteString("### Categories:\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "- %s: %d entries\n", c, counts[c])
	}
	return b.String()
}
