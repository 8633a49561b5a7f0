// Package main is the entrypoint for the ContractScan API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/contractscan/internal/ai"
	"github.com/kiranshivaraju/contractscan/internal/analysis"
	"github.com/kiranshivaraju/contractscan/internal/api"
	"github.com/kiranshivaraju/contractscan/internal/api/handler"
	mw "github.com/kiranshivaraju/contractscan/internal/api/middleware"
	"github.com/kiranshivaraju/contractscan/internal/api/response"
	"github.com/kiranshivaraju/contractscan/internal/cache"
	"github.com/kiranshivaraju/contractscan/internal/config"
	"github.com/kiranshivaraju/contractscan/internal/extract"
	"github.com/kiranshivaraju/contractscan/internal/logging"
	"github.com/kiranshivaraju/contractscan/internal/store"
	"github.com/kiranshivaraju/contractscan/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	shutdownTimeout = 30 * time.Second
	migrationsDir   = "migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(os.Stdout, cfg.Log)
	slog.Info("config loaded",
		"ai_transport", cfg.AI.Transport,
		"ai_model", cfg.AI.Model,
		"env", cfg.Server.Env,
		"history", cfg.HistoryEnabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Create AI client and pipeline
	client, err := ai.NewFromConfig(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI client: %w", err)
	}
	slog.Info("AI transport initialized", "transport", client.Name())

	svc := analysis.NewService(extract.New(), client, analysis.Options{
		MinContentChars: cfg.Analysis.MinContentChars,
		Model:           cfg.AI.Model,
	})

	analyzeOpts := handler.AnalyzeOptions{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Transport:      client.Name(),
		Model:          cfg.AI.Model,
	}
	deps := api.Dependencies{}

	// 3. Optional history: database, migrations, auth
	var db store.Store
	if cfg.HistoryEnabled() {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL, migrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")

		pgStore := store.NewPostgresStore(pool)
		db = pgStore

		if cfg.Server.BootstrapAdminKey != "" {
			if err := installBootstrapKey(ctx, pgStore, cfg.Server.BootstrapAdminKey); err != nil {
				return fmt.Errorf("install bootstrap admin key: %w", err)
			}
		}

		analyzeOpts.Recorder = pgStore
		deps.Auth = mw.NewAuth(pgStore)
		deps.GetAnalysisHandler = handler.NewGetAnalysisHandler(pgStore)
		deps.ListAnalysesHandler = handler.NewListAnalysesHandler(pgStore)
		deps.CreateKeyHandler = handler.NewCreateKeyHandler(pgStore)
		deps.ListKeysHandler = handler.NewListKeysHandler(pgStore)
		deps.RevokeKeyHandler = handler.NewRevokeKeyHandler(pgStore)
	} else {
		slog.Warn("DATABASE_URL not set: running without history, API keys or rate limiting")
	}

	// 4. Optional Redis rate limiting
	var rc cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected")

		rc = redisCache
		deps.RateLimit = mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMinute)
	}

	deps.HealthHandler = healthHandler(db, rc)
	deps.AnalyzeHandler = handler.NewAnalyzeHandler(svc, analyzeOpts)

	router := api.NewRouter(deps)

	// 5. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: writeTimeout(cfg.AI.Timeout),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// writeTimeout leaves room for one model call on top of upload handling.
// Without a configured model timeout the request context is the only bound.
func writeTimeout(aiTimeout time.Duration) time.Duration {
	if aiTimeout <= 0 {
		return 5 * time.Minute
	}
	return aiTimeout + 30*time.Second
}

var bootstrapScopes = []string{models.ScopeRead, models.ScopeWrite, models.ScopeAdmin}

// installBootstrapKey stores rawKey as an admin key of the default tenant
// unless a key with the same secret is already active.
func installBootstrapKey(ctx context.Context, s store.Store, rawKey string) error {
	if len(rawKey) < mw.KeyPrefixLen {
		return fmt.Errorf("key must be at least %d characters", mw.KeyPrefixLen)
	}

	existing, err := s.GetAPIKeyByPrefix(ctx, rawKey[:mw.KeyPrefixLen])
	if err != nil {
		return err
	}
	for _, k := range existing {
		if k.Revoked() || bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(rawKey)) != nil {
			continue
		}
		if !k.HasScope(models.ScopeAdmin) {
			return fmt.Errorf("key %s exists without %s scope", k.KeyPrefix, models.ScopeAdmin)
		}
		slog.Info("bootstrap admin key already installed", "key_prefix", k.KeyPrefix)
		return nil
	}

	tenant, err := s.GetDefaultTenant(ctx)
	if err != nil {
		return fmt.Errorf("default tenant: %w", err)
	}
	key, err := handler.NewAPIKey(tenant.ID, "bootstrap-admin", rawKey, bootstrapScopes)
	if err != nil {
		return err
	}
	if err := s.CreateAPIKey(ctx, key); err != nil {
		return err
	}
	slog.Info("bootstrap admin key installed", "key_prefix", key.KeyPrefix)
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks database and cache connectivity. Services that are
// not configured report "disabled" and do not degrade the result.
func healthHandler(db, c pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": probe(r.Context(), db),
			"cache":    probe(r.Context(), c),
		}

		if checks["database"] == "degraded" || checks["cache"] == "degraded" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}

func probe(ctx context.Context, p pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "degraded"
	}
	return "ok"
}
