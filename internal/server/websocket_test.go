package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"garden_buddy/internal/auth"
	"garden_buddy/internal/engine"
	"garden_buddy/internal/garden"
	"garden_buddy/internal/knowledge"
	"garden_buddy/internal/nodes"
	"garden_buddy/internal/storage"
	"garden_buddy/internal/weather"
	"garden_buddy/pkg"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

type sunnyForecast struct{}

func (sunnyForecast) Current(_ context.Context, city, _ string) (weather.Report, error) {
	return weather.Report{City: city, Description: "clear sky", Temp: 21, Humidity: 40}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemoryStore(0)
	e, err := engine.New(
		engine.Config{FreePlantLimit: 5, HistoryCap: 50, DefaultLocation: "London"},
		kv, storage.Keys{}, knowledge.NewBaseline(knowledge.Fallback()), garden.DefaultCatalog(),
		nodes.Services{Forecaster: sunnyForecast{}},
		engine.WithRand(&pkg.ScriptedRand{Floats: []float64{0.9}}),
	)
	require.NoError(t, err)

	users, err := auth.NewStaticService("u-1", "sam@example.com", "free")
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(e, users, nil))
	t.Cleanup(srv.Close)
	return srv, kv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=" + user
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func say(t *testing.T, c *websocket.Conn, msg string) {
	t.Helper()
	data, err := sonic.Marshal(Frame{Type: FrameMessage, Content: msg})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))
}

func next(t *testing.T, c *websocket.Conn) Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var f Frame
	require.NoError(t, sonic.Unmarshal(data, &f))
	return f
}

func TestChatOverWebSocket(t *testing.T) {
	srv, _ := newTestServer(t)
	c := dial(t, srv, "u-1")

	say(t, c, "/help")
	f := next(t, c)
	assert.Equal(t, FrameReply, f.Type)
	assert.Contains(t, f.Content, "Commands")
}

func TestBadFrameGetsError(t *testing.T) {
	srv, _ := newTestServer(t)
	c := dial(t, srv, "u-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("hello")))

	f := next(t, c)
	assert.Equal(t, FrameError, f.Type)
}

func TestWeatherArrivesAsFollowup(t *testing.T) {
	srv, kv := newTestServer(t)
	c := dial(t, srv, "u-1")

	say(t, c, "/settings weather-key abc123")
	assert.Equal(t, FrameReply, next(t, c).Type)

	say(t, c, "/weather")
	got := map[string]string{}
	for range 2 {
		f := next(t, c)
		got[f.Type] = f.Content
	}
	assert.Equal(t, "Checking the forecast...", got[FrameReply])
	assert.Contains(t, got[FrameFollowup], "London Weather")

	require.Eventually(t, func() bool {
		mem := garden.NewMemory("")
		if err := storage.GetJSON(context.Background(), kv, storage.Keys{}.Memory("u-1"), mem); err != nil {
			return false
		}
		n := len(mem.ChatHistory)
		return n > 0 && strings.Contains(mem.ChatHistory[n-1].Content, "London Weather")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSessionsAreIsolated(t *testing.T) {
	srv, _ := newTestServer(t)
	member := dial(t, srv, "u-1")
	visitor := dial(t, srv, "")

	say(t, member, "/plant add basil")
	assert.Contains(t, next(t, member).Content, "Added Basil")

	say(t, visitor, "/export")
	assert.Contains(t, next(t, visitor).Content, "Guest Limitation")

	say(t, visitor, "/stats")
	assert.NotContains(t, next(t, visitor).Content, "Basil")
}
