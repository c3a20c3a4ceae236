// Package engine runs chat turns through the node graph and persists the
// results. One Engine serves many sessions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"garden_buddy/internal/auth"
	"garden_buddy/internal/core"
	"garden_buddy/internal/garden"
	"garden_buddy/internal/knowledge"
	"garden_buddy/internal/logger"
	"garden_buddy/internal/nodes"
	"garden_buddy/internal/storage"
	"garden_buddy/pkg"
)

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Config tunes per-session limits
type Config struct {
	FreePlantLimit  int
	HistoryCap      int
	DefaultLocation string
	MinScore        int
}

// Engine owns the processor and the shared stores
type Engine struct {
	cfg       Config
	processor core.GraphProcessor
	kv        storage.KeyValueStore
	keys      storage.Keys
	baseline  *knowledge.Baseline
	catalog   *garden.Catalog
	quota     *auth.GuestQuota
	rand      pkg.Rand
	clock     pkg.Clock
}

// Option customises an Engine
type Option func(*Engine)

// WithRand replaces the random source
func WithRand(r pkg.Rand) Option {
	return func(e *Engine) { e.rand = r }
}

// WithClock replaces the clock
func WithClock(c pkg.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithGuestQuota enables the guest message allowance
func WithGuestQuota(q *auth.GuestQuota) Option {
	return func(e *Engine) { e.quota = q }
}

// New builds the analyze -> routing -> style -> flow graph
func New(cfg Config, kv storage.KeyValueStore, keys storage.Keys, baseline *knowledge.Baseline, catalog *garden.Catalog, svc nodes.Services, opts ...Option) (*Engine, error) {
	processor := core.NewGraphProcessor(core.Config{Graph: core.GraphConfig{DefaultFlow: core.DefaultFlow()}})
	for _, n := range []core.Node{
		nodes.NewAnalyzeNode(svc),
		nodes.NewRoutingNode(svc),
		nodes.NewStyleNode(),
		nodes.NewFlowNode(),
	} {
		if err := processor.AddNode(n); err != nil {
			return nil, fmt.Errorf("failed to add node: %w", err)
		}
	}

	e := &Engine{
		cfg:       cfg,
		processor: processor,
		kv:        kv,
		keys:      keys,
		baseline:  baseline,
		catalog:   catalog,
		rand:      pkg.SystemRand(),
		clock:     pkg.SystemClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) plantLimit(user pkg.User) int {
	if user.Tier == pkg.TierPro {
		return garden.Unlimited
	}
	return e.cfg.FreePlantLimit
}

// NewSession loads the user's memory and taught knowledge, starting fresh when
// nothing is stored yet
func (e *Engine) NewSession(ctx context.Context, user pkg.User) (*core.Session, error) {
	mem := garden.NewMemory(e.cfg.DefaultLocation)
	if err := storage.GetJSON(ctx, e.kv, e.keys.Memory(user.ID), mem); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to load garden memory: %w", err)
		}
		logger.Info().Str("user_id", user.ID).Msg("Starting new garden memory")
	}

	taught, err := knowledge.LoadUserTaught(ctx, e.kv, e.keys, user.ID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to load taught knowledge")
	}

	g := garden.New(mem, e.catalog, e.clock, e.plantLimit(user))
	k := knowledge.NewStore(e.baseline, taught, e.cfg.MinScore)
	return core.NewSession(user, g, k, e.rand, e.clock), nil
}

// Reply runs one message through the graph and saves the session. Guests over
// their allowance get the limit message and nothing else happens.
func (e *Engine) Reply(ctx context.Context, s *core.Session, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", nil
	}

	s.Lock()
	defer s.Unlock()

	if e.quota != nil && !e.quota.Allow(ctx, s.User) {
		logger.Info().Str("user_id", s.UserID).Msg("Guest limit reached")
		return auth.LimitMessage, nil
	}

	s.Garden.AppendChat(RoleUser, message, e.cfg.HistoryCap)

	out, err := e.processor.Execute(ctx, core.ProcessorInput{UserMessage: message, Session: s})
	if err != nil {
		return "", fmt.Errorf("failed to process message: %w", err)
	}

	s.Garden.AppendChat(RoleAssistant, out.Response, e.cfg.HistoryCap)
	e.save(ctx, s)

	logger.Debug().
		Str("user_id", s.UserID).
		Str("rule", out.Rule).
		Str("response_type", out.ResponseType).
		Int64("processing_ms", out.ProcessingTime).
		Msg("Reply generated")
	return out.Response, nil
}

// RecordFollowup stores an async reply, such as a weather report, in the history
func (e *Engine) RecordFollowup(ctx context.Context, s *core.Session, message string) {
	s.Lock()
	defer s.Unlock()
	s.Garden.AppendChat(RoleAssistant, message, e.cfg.HistoryCap)
	e.save(ctx, s)
}

// save writes memory first and taught knowledge second. Failures are logged;
// the in-memory state stays as it is.
func (e *Engine) save(ctx context.Context, s *core.Session) {
	if err := storage.SetJSON(ctx, e.kv, e.keys.Memory(s.UserID), s.Garden.Mem); err != nil {
		logger.Error().Err(err).Str("user_id", s.UserID).Msg("Failed to save garden memory")
	}
	if s.TakeKnowledgeDirty() {
		if err := knowledge.SaveUserTaught(ctx, e.kv, e.keys, s.UserID, s.Knowledge); err != nil {
			logger.Error().Err(err).Str("user_id", s.UserID).Msg("Failed to save taught knowledge")
		}
	}
}
