package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/interview-coach/internal/api"
	"github.com/terra-clan/interview-coach/internal/clock"
	"github.com/terra-clan/interview-coach/internal/config"
	"github.com/terra-clan/interview-coach/internal/diagrams"
	"github.com/terra-clan/interview-coach/internal/llm"
	"github.com/terra-clan/interview-coach/internal/problems"
	"github.com/terra-clan/interview-coach/internal/rounds"
	"github.com/terra-clan/interview-coach/internal/runner"
	"github.com/terra-clan/interview-coach/internal/services"
	"github.com/terra-clan/interview-coach/internal/session"
	"github.com/terra-clan/interview-coach/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("starting interview-coach",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
		"runner", cfg.Runner.Backend,
	)

	if err := run(cfg); err != nil {
		slog.Error("interview-coach failed", "error", err)
		os.Exit(1)
	}

	slog.Info("interview-coach stopped")
}

func run(cfg *config.Config) error {
	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	health := services.NewRegistry()

	store, err := storage.Open(initCtx, storage.Options{
		Backend:       cfg.Storage.Backend,
		Dir:           cfg.Storage.Dir,
		RedisAddress:  cfg.Storage.RedisAddress,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisDB:       cfg.Storage.RedisDB,
		PostgresDSN:   cfg.Storage.PostgresDSN,
	})
	if err != nil {
		return err
	}
	defer store.Close()
	health.Register("storage", store)
	slog.Info("state storage ready", "backend", cfg.Storage.Backend)

	repo, err := openDiagrams(initCtx, cfg.Diagrams)
	if err != nil {
		return err
	}
	if repo != nil {
		defer repo.Close()
		health.Register("diagrams", repo)
	}

	table, err := rounds.LoadFile(cfg.Rounds.File)
	if err != nil {
		return err
	}

	var geminiOpts []llm.Option
	if cfg.LLM.Endpoint != "" {
		geminiOpts = append(geminiOpts, llm.WithEndpoint(cfg.LLM.Endpoint))
	}
	geminiOpts = append(geminiOpts, llm.WithHTTPTimeout(cfg.LLM.Timeout))
	generator := llm.NewGeminiClient(cfg.LLM.APIKey, geminiOpts...)

	problemsURL := problems.DefaultBaseURL
	if cfg.Problems.BaseURL != "" {
		problemsURL = cfg.Problems.BaseURL
	}
	httpClient := &http.Client{Timeout: cfg.Problems.Timeout}
	source := problems.NewLeetCodeClient(problems.WithBaseURL(problemsURL), problems.WithHTTPClient(httpClient))
	health.Register("problems", services.HTTPCheck(httpClient, problemsURL))

	executor, closeExecutor, err := openExecutor(initCtx, cfg.Runner)
	if err != nil {
		return err
	}
	defer closeExecutor()
	switch e := executor.(type) {
	case *runner.DockerRunner:
		health.Register("runner", services.CheckFunc(e.Ping))
	case *runner.JDoodleClient:
		endpoint := runner.DefaultJDoodleEndpoint
		if cfg.Runner.JDoodleEndpoint != "" {
			endpoint = cfg.Runner.JDoodleEndpoint
		}
		health.Register("runner", services.HTTPCheck(nil, endpoint))
	}

	deps := session.Deps{
		Store:       store,
		Rounds:      table,
		Generator:   generator,
		Source:      source,
		Executor:    executor,
		Diagrams:    repo,
		Clock:       clock.New(),
		GracePeriod: cfg.Rounds.GracePeriod,
	}
	sessions := session.NewRegistry(deps)
	defer sessions.Close()

	cleaner := session.NewCleaner(sessions, cfg.Sessions.IdleTTL, cfg.Sessions.CleanupInterval)

	server := api.NewServer(cfg.Server, cfg.RateLimit, sessions, table, repo, health)
	httpServer := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return cleaner.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openDiagrams returns nil when diagrams are not persisted
func openDiagrams(ctx context.Context, cfg config.DiagramsConfig) (diagrams.Repository, error) {
	switch cfg.Backend {
	case "postgres":
		return diagrams.NewPostgresRepository(ctx, cfg.PostgresDSN)
	case "file":
		return diagrams.NewFileRepository(cfg.Dir)
	default:
		return nil, nil
	}
}

// openExecutor returns a nil executor when code execution is disabled
func openExecutor(ctx context.Context, cfg config.RunnerConfig) (runner.Executor, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case runner.BackendJDoodle:
		opts := []runner.JDoodleOption{runner.WithRateLimit(cfg.JDoodleRatePerSec, 5)}
		if cfg.JDoodleEndpoint != "" {
			opts = append(opts, runner.WithJDoodleEndpoint(cfg.JDoodleEndpoint))
		}
		return runner.NewJDoodleClient(cfg.JDoodleClientID, cfg.JDoodleSecret, opts...), noop, nil

	case runner.BackendDocker:
		d, err := runner.NewDockerRunner(runner.DockerConfig{
			Host:        cfg.DockerHost,
			PullPolicy:  cfg.DockerPullPolicy,
			Timeout:     cfg.DockerTimeout,
			MemoryBytes: cfg.DockerMemoryBytes,
		})
		if err != nil {
			return nil, noop, err
		}
		if err := d.Ping(ctx); err != nil {
			d.Close()
			return nil, noop, err
		}
		return d, func() { d.Close() }, nil

	default:
		slog.Warn("code execution disabled")
		return nil, noop, nil
	}
}
