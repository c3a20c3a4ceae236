package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"garden_buddy/internal/auth"
	"garden_buddy/internal/breaker"
	"garden_buddy/internal/config"
	"garden_buddy/internal/core"
	"garden_buddy/internal/engine"
	"garden_buddy/internal/garden"
	"garden_buddy/internal/knowledge"
	"garden_buddy/internal/llm"
	"garden_buddy/internal/logger"
	"garden_buddy/internal/nodes"
	"garden_buddy/internal/routes"
	"garden_buddy/internal/server"
	"garden_buddy/internal/storage"
	gardensync "garden_buddy/internal/sync"
	"garden_buddy/internal/weather"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "garden_buddy",
		Short:        "A gardening assistant that learns about your garden",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	root.AddCommand(chatCmd(), serveCmd(), routeCmd())
	return root
}

// app holds everything the chat and serve commands share
type app struct {
	cfg     *config.Config
	engine  *engine.Engine
	users   *auth.StaticService
	store   storage.KeyValueStore
	queue   *gardensync.Queue
	exports *storage.ExportWriter
}

func breakerConfig(c config.BreakerConfig) breaker.Config {
	return breaker.Config{
		MaxFailures:          c.MaxFailures,
		Timeout:              c.Timeout,
		HalfOpenMaxSuccesses: c.HalfOpenMaxSuccesses,
	}
}

func setup(ctx context.Context) (_ *app, err error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	kv, err := storage.Open(ctx, cfg.Storage.Backend, cfg.Storage.RedisURL, cfg.Storage.SQLitePath, cfg.Storage.TTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = kv.Close()
		}
	}()
	keys := storage.Keys{Prefix: cfg.Storage.KeyPrefix}

	baseline := knowledge.NewBaseline(knowledge.NewLoader(cfg.Knowledge.DocumentURL, cfg.Knowledge.FetchTimeout).Load(ctx))
	catalog := garden.DefaultCatalog()
	exports := storage.NewExportWriter(cfg.Export.Directory)

	svc := nodes.Services{
		Forecaster:     weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.Timeout, breaker.DefaultConfig()),
		Exporter:       exports,
		MaxResults:     cfg.Knowledge.MaxResults,
		WeatherTimeout: cfg.Weather.Timeout,
	}

	tools, err := llm.GardenTools(catalog, baseline)
	if err != nil {
		return nil, err
	}
	advisor, err := llm.NewAdvisor(ctx, llm.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		Breaker:     breakerConfig(cfg.LLM.Breaker),
	}, tools...)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Info().Msg("No LLM configured, using local logic only")
	case err != nil:
		return nil, err
	default:
		svc.Advisor = advisor
		logger.Info().Str("provider", cfg.LLM.Provider).Str("model", cfg.LLM.Model).Msg("LLM advisor ready")
	}

	a := &app{cfg: cfg, store: kv, exports: exports}
	if cfg.Sync.Enabled {
		a.queue = gardensync.NewQueue(gardensync.KVSink{KV: kv, Keys: keys}, gardensync.Config{
			Rate:      cfg.Sync.Rate,
			Burst:     cfg.Sync.Burst,
			QueueSize: cfg.Sync.QueueSize,
		})
		svc.Recorder = a.queue
	}

	a.users, err = auth.NewStaticService(cfg.Auth.UserID, cfg.Auth.Email, cfg.Auth.Tier)
	if err != nil {
		return nil, err
	}

	var opts []engine.Option
	if counter, ok := kv.(storage.Counter); ok {
		opts = append(opts, engine.WithGuestQuota(auth.NewGuestQuota(counter, keys, cfg.Garden.GuestLimit)))
	}
	a.engine, err = engine.New(engine.Config{
		FreePlantLimit:  cfg.Garden.FreePlantLimit,
		HistoryCap:      cfg.Garden.HistoryCap,
		DefaultLocation: cfg.Garden.DefaultLocation,
		MinScore:        cfg.Knowledge.MinScore,
	}, kv, keys, baseline, catalog, svc, opts...)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("storage", cfg.Storage.Backend).
		Int("knowledge_entries", baseline.Len()).
		Int("plants", catalog.Len()).
		Bool("sync", cfg.Sync.Enabled).
		Msg("Garden Buddy initialized")
	return a, nil
}

func (a *app) close() {
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to drain sync queue")
		}
	}
	if err := a.store.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close storage")
	}
	_ = logger.Close()
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with Garden Buddy in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			user := a.users.Account()
			if a.cfg.Export.MaxAge > 0 && user.Authenticated() {
				if n, err := a.exports.CleanupOldExports(user.ID, a.cfg.Export.MaxAge, time.Now()); err != nil {
					logger.Warn().Err(err).Msg("Failed to prune old exports")
				} else if n > 0 {
					logger.Info().Int("removed", n).Msg("Pruned old exports")
				}
			}

			s, err := a.engine.NewSession(ctx, user)
			if err != nil {
				return err
			}
			return repl(ctx, cmd, a.engine, s)
		},
	}
}

// repl reads lines until EOF, /quit or a signal, printing follow-ups as they arrive
func repl(ctx context.Context, cmd *cobra.Command, e *engine.Engine, s *core.Session) error {
	out := cmd.OutOrStdout()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, "🌱 Garden Buddy is ready. Type /help for commands or /quit to leave.")
	fmt.Fprint(out, "> ")
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case msg := <-s.Followups():
			e.RecordFollowup(ctx, s, msg)
			fmt.Fprintf(out, "\n%s\n> ", msg)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "/quit" || line == "/exit" {
				return nil
			}
			reply, err := e.Reply(ctx, s, line)
			switch {
			case err != nil:
				logger.Error().Err(err).Msg("Reply failed")
				fmt.Fprintln(out, "⚠️ Something went wrong. Please try again.")
			case reply != "":
				fmt.Fprintln(out, reply)
			}
			fmt.Fprint(out, "> ")
		}
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve chat sessions over websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.Server.Address
			}
			return server.Serve(ctx, addr, server.NewHandler(a.engine, a.users, a.cfg.Server.OriginPatterns))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.address)")
	return cmd
}

func routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <jobs.yaml>",
		Short: "Order garden jobs into the shortest driving route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open jobs file: %w", err)
			}
			defer f.Close()

			jobs, start, err := routes.LoadJobs(f)
			if err != nil {
				return err
			}
			plan, err := routes.Optimize(jobs, start)
			if errors.Is(err, routes.ErrTooFewJobs) {
				fmt.Fprintln(cmd.OutOrStdout(), routes.TooFewJobsMessage)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plan.Summary())
			return nil
		},
	}
}
