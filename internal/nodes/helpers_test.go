package nodes

import (
	"context"
	"sync"
	"testing"
	"time"

	"garden_buddy/internal/core"
	"garden_buddy/internal/garden"
	"garden_buddy/internal/knowledge"
	"garden_buddy/internal/llm"
	"garden_buddy/internal/storage"
	"garden_buddy/internal/weather"
	"garden_buddy/pkg"

	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

var (
	guest    = pkg.User{ID: "guest-1", Tier: pkg.TierGuest}
	freeUser = pkg.User{ID: "u-1", Email: "sam@example.com", Tier: pkg.TierFree}
)

type fixture struct {
	s     *core.Session
	rand  *pkg.ScriptedRand
	clock *pkg.ManualClock
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	user     pkg.User
	catalog  *garden.Catalog
	baseline *knowledge.Baseline
	limit    int
}

func withUser(u pkg.User) fixtureOption {
	return func(c *fixtureConfig) { c.user = u }
}

func withCatalog(cat *garden.Catalog) fixtureOption {
	return func(c *fixtureConfig) { c.catalog = cat }
}

func withKnowledge(doc *pkg.KnowledgeDocument) fixtureOption {
	return func(c *fixtureConfig) { c.baseline = knowledge.NewBaseline(doc) }
}

func withPlantLimit(n int) fixtureOption {
	return func(c *fixtureConfig) { c.limit = n }
}

// newFixture builds a session with a scripted random source. By default the
// catalog is the built-in one and the knowledge base is empty.
func newFixture(opts ...fixtureOption) *fixture {
	cfg := fixtureConfig{user: guest, catalog: garden.DefaultCatalog(), limit: 5}
	for _, opt := range opts {
		opt(&cfg)
	}
	clock := &pkg.ManualClock{T: testStart}
	rnd := &pkg.ScriptedRand{Floats: []float64{0.9}}
	g := garden.New(garden.NewMemory("London"), cfg.catalog, clock, cfg.limit)
	s := core.NewSession(cfg.user, g, knowledge.NewStore(cfg.baseline, nil, 0), rnd, clock)
	return &fixture{s: s, rand: rnd, clock: clock}
}

// route runs only the routing node
func route(t *testing.T, svc Services, s *core.Session, msg string) (reply, rule string) {
	t.Helper()
	out, err := NewRoutingNode(svc).Execute(context.Background(), core.NodeInput{
		UserMessage: msg,
		Session:     s,
		Metadata:    map[string]any{},
	})
	require.NoError(t, err)
	require.NoError(t, out.Error)
	return out.Data["response"].(string), out.Data["rule"].(string)
}

// run pushes msg through the full analyze, routing, style and flow graph
func run(t *testing.T, svc Services, s *core.Session, msg string) core.ProcessorOutput {
	t.Helper()
	p := core.NewGraphProcessor(core.Config{Graph: core.GraphConfig{DefaultFlow: core.DefaultFlow()}})
	for _, n := range []core.Node{NewAnalyzeNode(svc), NewRoutingNode(svc), NewStyleNode(), NewFlowNode()} {
		require.NoError(t, p.AddNode(n))
	}
	out, err := p.Execute(context.Background(), core.ProcessorInput{UserMessage: msg, Session: s})
	require.NoError(t, err)
	return *out
}

type fakeAdvisor struct {
	reply   string
	err     error
	prompts []llm.Prompt
}

func (f *fakeAdvisor) Advise(_ context.Context, p llm.Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.reply, f.err
}

type fakeForecaster struct {
	report weather.Report
	err    error
}

func (f fakeForecaster) Current(_ context.Context, city, _ string) (weather.Report, error) {
	if f.err != nil {
		return weather.Report{}, f.err
	}
	r := f.report
	r.City = city
	return r, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []pkg.SyncRecord
}

func (f *fakeRecorder) Enqueue(rec pkg.SyncRecord) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return true
}

type fakeExporter struct {
	memories int
	chats    int
	files    []storage.ExportInfo
}

func (f *fakeExporter) WriteMemory(userID string, _ *pkg.GardenMemory, _ time.Time) (string, error) {
	f.memories++
	return "exports/" + userID + ".json", nil
}

func (f *fakeExporter) WriteChatHistory(userID string, _ []pkg.ChatMessage, _ time.Time) (string, error) {
	f.chats++
	return "exports/" + userID + "-chat.json", nil
}

func (f *fakeExporter) ListExports(string) ([]storage.ExportInfo, error) {
	return f.files, nil
}
