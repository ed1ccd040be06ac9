// Command daypland is the dayplan server daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoCodeAlone/dayplan/assistant"
	"github.com/GoCodeAlone/dayplan/auth"
	"github.com/GoCodeAlone/dayplan/comms"
	"github.com/GoCodeAlone/dayplan/config"
	"github.com/GoCodeAlone/dayplan/internal/version"
	"github.com/GoCodeAlone/dayplan/jobs"
	"github.com/GoCodeAlone/dayplan/planner"
	"github.com/GoCodeAlone/dayplan/plugin"
	"github.com/GoCodeAlone/dayplan/provider"
	"github.com/GoCodeAlone/dayplan/provider/mock"
	"github.com/GoCodeAlone/dayplan/server"
	"github.com/GoCodeAlone/dayplan/store"
	"github.com/GoCodeAlone/dayplan/tools"
)

const shutdownTimeout = 10 * time.Second

var configPath = flag.String("config", "", "path to YAML config file (optional)")

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "daypland: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("starting daypland",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
	)

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret not set; sessions will not survive a restart")
	}
	authSvc := auth.NewService(db, auth.NewTokenIssuer(cfg.Auth.JWTSecret), auth.Options{
		SessionTTL: cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})

	bus := comms.NewInMemoryBus()
	plannerSvc := planner.New(db, store.NewUnitOfWork(db), bus, logger)

	reg := plugin.NewRegistry()
	if err := tools.Register(reg, plannerSvc); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}
	orch := assistant.New(newProvider(cfg.Assistant), reg, assistant.Options{
		MaxSteps: cfg.Assistant.MaxSteps,
		Timeout:  cfg.Assistant.Timeout,
		Logger:   logger,
	})
	logger.Info("assistant ready",
		slog.String("provider", orch.ProviderName()),
		slog.Int("tools", len(reg.Names())),
	)

	sched := jobs.New(logger)
	if err := sched.Add("session-purge", cfg.Jobs.SessionPurge, authSvc.PurgeExpiredSessions); err != nil {
		return fmt.Errorf("schedule jobs: %w", err)
	}
	sched.Start()

	srv := server.New(cfg.Server, server.Deps{
		Planner:   plannerSvc,
		Auth:      authSvc,
		Assistant: orch,
		Bus:       bus,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			_ = sched.Stop(context.Background())
			return fmt.Errorf("server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("err", err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown", slog.Any("err", err))
	}
	logger.Info("shutdown complete")
	return nil
}

// newProvider builds the model provider named in cfg. Config validation
// has already checked the name and API key.
func newProvider(cfg config.AssistantConfig) provider.Provider {
	switch cfg.Provider {
	case "anthropic":
		return provider.NewAnthropicProvider(provider.AnthropicConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
		})
	case "openai":
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
		})
	default:
		return mock.Text("The assistant is running without a model. Configure assistant.provider to enable it.")
	}
}
