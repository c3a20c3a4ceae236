// Package server exposes the chat engine over websockets. Each connection gets
// its own session; async replies such as weather reports are pushed as
// "followup" frames.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"garden_buddy/internal/core"
	"garden_buddy/internal/logger"
	"garden_buddy/pkg"

	"github.com/bytedance/sonic"
	"nhooyr.io/websocket"
)

// Frame types
const (
	FrameMessage  = "message"
	FrameReply    = "reply"
	FrameFollowup = "followup"
	FrameError    = "error"
)

const writeTimeout = 10 * time.Second

// Frame is the JSON envelope in both directions
type Frame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Engine is the part of the chat engine the transport needs
type Engine interface {
	NewSession(ctx context.Context, user pkg.User) (*core.Session, error)
	Reply(ctx context.Context, s *core.Session, message string) (string, error)
	RecordFollowup(ctx context.Context, s *core.Session, message string)
}

// Users maps the id a client presents onto a user
type Users interface {
	Resolve(id string) pkg.User
}

// Handler upgrades requests to websocket chat sessions
type Handler struct {
	engine  Engine
	users   Users
	origins []string
}

// NewHandler creates a new websocket handler
func NewHandler(engine Engine, users Users, originPatterns []string) *Handler {
	return &Handler{engine: engine, users: users, origins: originPatterns}
}

// conn serialises writes from the read loop and the follow-up forwarder
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(ctx context.Context, f Frame) error {
	data, err := sonic.Marshal(f)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.Write(ctx, websocket.MessageText, data)
}

// ServeHTTP runs one chat session for the lifetime of the connection.
// The user id comes from the "user" query parameter.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	user := h.users.Resolve(r.URL.Query().Get("user"))
	log := logger.ForUser(user.ID)
	s, err := h.engine.NewSession(ctx, user)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start session")
		_ = ws.Close(websocket.StatusInternalError, "session unavailable")
		return
	}
	log.Info().Str("tier", string(user.Tier)).Msg("WebSocket session started")

	c := &conn{ws: ws}
	go h.forwardFollowups(ctx, s, c)

	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				log.Info().Msg("WebSocket session closed")
			default:
				if !errors.Is(err, context.Canceled) {
					log.Warn().Err(err).Msg("WebSocket read failed")
				}
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var in Frame
		if err := sonic.Unmarshal(data, &in); err != nil || in.Type != FrameMessage {
			if err := c.send(ctx, Frame{Type: FrameError, Content: "Send {\"type\":\"message\",\"content\":\"...\"}"}); err != nil {
				return
			}
			continue
		}

		reply, err := h.engine.Reply(ctx, s, in.Content)
		if err != nil {
			log.Error().Err(err).Msg("Reply failed")
			reply = ""
			if err := c.send(ctx, Frame{Type: FrameError, Content: "Something went wrong. Please try again."}); err != nil {
				return
			}
		}
		if reply == "" {
			continue
		}
		if err := c.send(ctx, Frame{Type: FrameReply, Content: reply}); err != nil {
			log.Warn().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}

func (h *Handler) forwardFollowups(ctx context.Context, s *core.Session, c *conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.Followups():
			h.engine.RecordFollowup(ctx, s, msg)
			if err := c.send(ctx, Frame{Type: FrameFollowup, Content: msg}); err != nil {
				logger.Warn().Err(err).Str("user_id", s.UserID).Msg("Follow-up not delivered")
				return
			}
		}
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/chat", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", addr).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		logger.Info().Msg("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
