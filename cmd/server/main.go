// Command server runs the arena comparison service.
//
// Configuration is layered: built-in defaults, then a YAML file
// (ARENA_CONFIG or ./config.yaml), then ARENA_* environment overrides.
// The most common knobs:
//
//	ARENA_PORT                - Listen port (default: 8080)
//	ARENA_STORAGE             - Storage type: "memory" or "postgres" (default: "memory")
//	ARENA_POSTGRES_DSN        - Connection string for storage=postgres
//	ARENA_AUTH_MODE           - "token", "apikey", or "none" (default: "token")
//	ARENA_TOKEN_SECRET        - HS256 signing key for auth mode "token"
//	ARENA_GEMINI_API_KEY      - Enables the Gemini provider
//	ARENA_DEEPSEEK_API_KEY    - Enables the DeepSeek provider
//	ARENA_HUGGINGFACE_API_KEY - Enables the HuggingFace provider
//	ARENA_DEBUG               - Debug log categories (e.g. "compare,providers")
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prompt-arena/arena/pkg/analytics"
	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/auth"
	"github.com/prompt-arena/arena/pkg/auth/apikey"
	"github.com/prompt-arena/arena/pkg/auth/noop"
	"github.com/prompt-arena/arena/pkg/auth/token"
	"github.com/prompt-arena/arena/pkg/compare"
	"github.com/prompt-arena/arena/pkg/config"
	"github.com/prompt-arena/arena/pkg/debug"
	"github.com/prompt-arena/arena/pkg/observability"
	"github.com/prompt-arena/arena/pkg/provider/registry"
	"github.com/prompt-arena/arena/pkg/storage"
	"github.com/prompt-arena/arena/pkg/storage/memory"
	"github.com/prompt-arena/arena/pkg/storage/postgres"
	"github.com/prompt-arena/arena/pkg/transport"
	transporthttp "github.com/prompt-arena/arena/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	debug.Init(os.Getenv("ARENA_DEBUG"), os.Getenv("ARENA_LOG_LEVEL"))

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Create store.
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	// Seed accounts and provider configs.
	if err := seedUsers(ctx, store, cfg.Auth.SeedUsers); err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}
	if err := seedProviders(ctx, store, cfg.Providers); err != nil {
		return fmt.Errorf("seeding providers: %w", err)
	}

	// Token service (nil outside token mode).
	var tokens *token.Service
	if cfg.Auth.Mode == "token" {
		tokens, err = token.NewService(token.Config{
			Secret: []byte(cfg.Auth.TokenSecret),
			Issuer: cfg.Auth.Issuer,
			TTL:    cfg.Auth.TokenTTL,
		})
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
	}

	// Auth chain and rate limiter.
	chain := buildAuthChain(cfg, tokens)
	var limiter auth.RateLimiter
	if cfg.Auth.RateLimit.DefaultRPM > 0 || len(cfg.Auth.RateLimit.Tiers) > 0 {
		limiter = auth.NewTierLimiter(cfg.Auth.RateLimit.Tiers, cfg.Auth.RateLimit.DefaultRPM)
	}

	// Analytics recorder and summarizer.
	recorder := analytics.NewRecorder(store, 0)
	defer recorder.Close()
	summarizer := analytics.NewSummarizer(store)

	// Comparison engine.
	engine, err := compare.New(store, registry.New(cfg.Compare.ProviderTimeout), recorder, compare.Config{
		ProviderTimeout: cfg.Compare.ProviderTimeout,
		Scoring:         cfg.Compare.ScoringEnabled(),
		Validation:      api.ValidationConfig{MaxPromptSize: cfg.Compare.MaxPromptSize},
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	// HTTP adapter with transport middleware.
	adapterCfg := transporthttp.DefaultConfig()
	adapterCfg.Addr = fmt.Sprintf(":%d", cfg.Server.Port)

	adapter := transporthttp.NewAdapter(engine, store, tokens, summarizer, adapterCfg,
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(slog.Default()),
	)

	// Build HTTP mux: metrics endpoint plus the authenticated API surface.
	mux := http.NewServeMux()
	authMW := auth.Middleware(chain, limiter, auth.DefaultBypassEndpoints)
	mux.Handle("/", authMW(adapter.Handler()))
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	srv := transporthttp.NewServer(observability.MetricsMiddleware(mux), transporthttp.ServerConfig{
		Addr:            adapterCfg.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: 30 * time.Second,
		Logger:          slog.Default(),
	})

	slog.Info("arena starting",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"auth_mode", cfg.Auth.Mode,
		"providers", len(cfg.Providers),
	)

	return srv.ListenAndServe()
}

// buildStore creates the configured storage backend.
func buildStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		return postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
	default:
		return memory.New(), nil
	}
}

// buildAuthChain assembles the authenticator chain for the configured mode.
// Token and API key authenticators can coexist; "none" accepts everything.
func buildAuthChain(cfg *config.Config, tokens *token.Service) *auth.AuthChain {
	chain := &auth.AuthChain{DefaultDecision: auth.No}

	switch cfg.Auth.Mode {
	case "none":
		chain.Authenticators = []auth.Authenticator{&noop.Authenticator{}}
		chain.DefaultDecision = auth.Yes
	case "apikey":
		chain.Authenticators = []auth.Authenticator{buildAPIKeyAuthenticator(cfg.Auth.APIKeys)}
	default: // token
		authenticators := []auth.Authenticator{token.NewAuthenticator(tokens)}
		if len(cfg.Auth.APIKeys) > 0 {
			authenticators = append([]auth.Authenticator{buildAPIKeyAuthenticator(cfg.Auth.APIKeys)}, authenticators...)
		}
		chain.Authenticators = authenticators
	}

	return chain
}

func buildAPIKeyAuthenticator(keys []config.APIKeyConfig) *apikey.Authenticator {
	entries := make([]apikey.RawKeyEntry, 0, len(keys))
	for _, k := range keys {
		role := api.RoleUser
		if k.Role == "admin" {
			role = api.RoleAdmin
		}
		entries = append(entries, apikey.RawKeyEntry{
			Key: k.Key,
			Identity: auth.Identity{
				Subject:     k.Subject,
				Role:        role,
				ServiceTier: k.ServiceTier,
			},
		})
	}
	return apikey.New(entries)
}

// seedUsers creates configured accounts that do not exist yet.
func seedUsers(ctx context.Context, store storage.Store, seeds []config.SeedUser) error {
	for _, seed := range seeds {
		if _, err := store.GetUserByEmail(ctx, seed.Email); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		hash, err := auth.HashPassword(seed.Password)
		if err != nil {
			return fmt.Errorf("hashing password for %s: %w", seed.Email, err)
		}

		role := api.RoleUser
		if seed.Role == "admin" {
			role = api.RoleAdmin
		}

		user := &api.User{
			ID:           api.NewUserID(),
			Email:        seed.Email,
			PasswordHash: hash,
			Role:         role,
			CreatedAt:    time.Now().UTC(),
		}
		if err := store.AddUser(ctx, user); err != nil && !errors.Is(err, storage.ErrConflict) {
			return err
		}
		slog.Info("seeded user", "email", seed.Email, "role", role)
	}
	return nil
}

// seedProviders creates configured provider configs, skipping any whose
// display name already exists. Defaults come from the registry.
func seedProviders(ctx context.Context, store storage.Store, seeds []config.ProviderSeed) error {
	existing, err := store.ListConfigs(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]bool, len(existing))
	for _, cfg := range existing {
		byName[cfg.DisplayName] = true
	}

	for _, seed := range seeds {
		kind := api.ProviderKind(seed.Provider)

		cfg := api.ProviderConfig{
			ID:          api.NewConfigID(),
			DisplayName: seed.Name,
			Kind:        kind,
			APIKey:      seed.APIKey,
			Endpoint:    seed.Endpoint,
			Model:       seed.Model,
			Score:       seed.Score,
			Active:      !seed.Disabled,
			CreatedAt:   time.Now().UTC(),
		}
		cfg = registry.Resolve(cfg)
		if cfg.DisplayName == "" {
			cfg.DisplayName = cfg.Model
		}

		if byName[cfg.DisplayName] {
			continue
		}

		if apiErr := api.ValidateProviderConfig(&cfg); apiErr != nil {
			slog.Warn("skipping provider seed", "name", cfg.DisplayName, "error", apiErr.Message)
			continue
		}

		if err := store.AddConfig(ctx, &cfg); err != nil {
			return err
		}
		slog.Info("seeded provider", "name", cfg.DisplayName, "kind", cfg.Kind, "model", cfg.Model)
	}
	return nil
}
