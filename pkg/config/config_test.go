package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfigFile writes YAML content into a temp file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second || cfg.Server.WriteTimeout != 120*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Compare.ProviderTimeout != 60*time.Second {
		t.Errorf("ProviderTimeout = %v", cfg.Compare.ProviderTimeout)
	}
	if !cfg.Compare.ScoringEnabled() {
		t.Error("scoring should default to enabled")
	}
	if cfg.Compare.MaxPromptSize != 1<<20 {
		t.Errorf("MaxPromptSize = %d", cfg.Compare.MaxPromptSize)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Storage.Type = %q", cfg.Storage.Type)
	}
	if cfg.Auth.Mode != "token" || cfg.Auth.TokenTTL != 24*time.Hour || cfg.Auth.Issuer != "arena" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if !cfg.Observability.Metrics.Enabled || cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Observability.Metrics)
	}
}

func TestScoringEnabled(t *testing.T) {
	var c CompareConfig
	if !c.ScoringEnabled() {
		t.Error("nil scoring should be enabled")
	}

	on, off := true, false
	c.Scoring = &on
	if !c.ScoringEnabled() {
		t.Error("explicit true should be enabled")
	}
	c.Scoring = &off
	if c.ScoringEnabled() {
		t.Error("explicit false should be disabled")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
compare:
  provider_timeout: 45s
  scoring: false
storage:
  type: memory
auth:
  mode: token
  token_secret: yaml-secret
providers:
  - name: My Gemini
    provider: gemini
    api_key: g-key
    model: gemini-1.5-pro
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	// Fields absent from the YAML keep their defaults.
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want default", cfg.Server.ReadTimeout)
	}
	if cfg.Compare.ProviderTimeout != 45*time.Second {
		t.Errorf("ProviderTimeout = %v", cfg.Compare.ProviderTimeout)
	}
	if cfg.Compare.ScoringEnabled() {
		t.Error("scoring should be disabled")
	}
	if cfg.Auth.TokenSecret != "yaml-secret" {
		t.Errorf("TokenSecret = %q", cfg.Auth.TokenSecret)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].Provider != "gemini" || cfg.Providers[0].Model != "gemini-1.5-pro" {
		t.Errorf("Providers = %+v", cfg.Providers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
auth:
  mode: token
  token_secret: yaml-secret
`)

	t.Setenv("ARENA_PORT", "7070")
	t.Setenv("ARENA_STORAGE", "memory")
	t.Setenv("ARENA_TOKEN_SECRET", "env-secret")
	t.Setenv("ARENA_PROVIDER_TIMEOUT", "90s")
	t.Setenv("ARENA_SCORING", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want env override", cfg.Server.Port)
	}
	if cfg.Auth.TokenSecret != "env-secret" {
		t.Errorf("TokenSecret = %q, want env override", cfg.Auth.TokenSecret)
	}
	if cfg.Compare.ProviderTimeout != 90*time.Second {
		t.Errorf("ProviderTimeout = %v", cfg.Compare.ProviderTimeout)
	}
	if cfg.Compare.ScoringEnabled() {
		t.Error("scoring should be disabled via env")
	}
}

func TestLoad_ProviderKeyEnv(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  mode: none
providers:
  - name: Gemini Main
    provider: gemini
  - name: Gemini Backup
    provider: gemini
`)

	t.Setenv("ARENA_GEMINI_API_KEY", "g-env-key")
	t.Setenv("ARENA_DEEPSEEK_API_KEY", "ds-env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The key applies to every seed of the vendor.
	if cfg.Providers[0].APIKey != "g-env-key" || cfg.Providers[1].APIKey != "g-env-key" {
		t.Errorf("gemini keys = %q, %q", cfg.Providers[0].APIKey, cfg.Providers[1].APIKey)
	}

	// A key for a vendor with no seed appends a bare seed.
	if len(cfg.Providers) != 3 {
		t.Fatalf("len(Providers) = %d, want 3", len(cfg.Providers))
	}
	if cfg.Providers[2].Provider != "deepseek" || cfg.Providers[2].APIKey != "ds-env-key" {
		t.Errorf("appended seed = %+v", cfg.Providers[2])
	}
}

func TestLoad_APIKeysEnvJSON(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  mode: apikey
`)

	t.Setenv("ARENA_API_KEYS", `[{"key":"sk-1","subject":"svc-batch","role":"admin","service_tier":"unlimited"}]`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Auth.APIKeys) != 1 {
		t.Fatalf("APIKeys = %+v", cfg.Auth.APIKeys)
	}
	key := cfg.Auth.APIKeys[0]
	if key.Key != "sk-1" || key.Subject != "svc-batch" || key.Role != "admin" || key.ServiceTier != "unlimited" {
		t.Errorf("key = %+v", key)
	}
}

func TestLoad_FileReferences(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "token-secret")
	if err := os.WriteFile(secretPath, []byte("  file-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	path := writeConfigFile(t, `
auth:
  mode: token
  token_secret_file: `+secretPath+`
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.TokenSecret != "file-secret" {
		t.Errorf("TokenSecret = %q, want trimmed file content", cfg.Auth.TokenSecret)
	}
}

func TestLoad_MissingSecretFile(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  mode: token
  token_secret_file: /nonexistent/secret
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for unreadable secret file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults with secret",
			mutate: func(c *Config) { c.Auth.TokenSecret = "s" },
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Auth.TokenSecret = "s"; c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Auth.TokenSecret = "s"; c.Storage.Type = "redis" },
			wantErr: "storage.type",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Auth.TokenSecret = "s"; c.Storage.Type = "postgres" },
			wantErr: "storage.postgres.dsn",
		},
		{
			name:    "unknown auth mode",
			mutate:  func(c *Config) { c.Auth.Mode = "oauth" },
			wantErr: "auth.mode",
		},
		{
			name:    "token mode without secret",
			mutate:  func(c *Config) {},
			wantErr: "auth.token_secret",
		},
		{
			name: "seed user without email",
			mutate: func(c *Config) {
				c.Auth.TokenSecret = "s"
				c.Auth.SeedUsers = []SeedUser{{Password: "p"}}
			},
			wantErr: "email is required",
		},
		{
			name: "seed user with bad role",
			mutate: func(c *Config) {
				c.Auth.TokenSecret = "s"
				c.Auth.SeedUsers = []SeedUser{{Email: "a@b.c", Password: "p", Role: "root"}}
			},
			wantErr: "role",
		},
		{
			name: "unknown provider kind",
			mutate: func(c *Config) {
				c.Auth.TokenSecret = "s"
				c.Providers = []ProviderSeed{{Provider: "openai"}}
			},
			wantErr: "providers[0].provider",
		},
		{
			name: "score out of range",
			mutate: func(c *Config) {
				c.Auth.TokenSecret = "s"
				c.Providers = []ProviderSeed{{Provider: "gemini", Score: 1.5}}
			},
			wantErr: "score",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_JoinsMultipleErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 0
	cfg.Storage.Type = "redis"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "storage.type", "auth.token_secret"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}
