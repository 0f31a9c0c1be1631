// Package config provides unified configuration for the arena server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (ARENA_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the arena server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Compare       CompareConfig       `yaml:"compare"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Providers     []ProviderSeed      `yaml:"providers"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
}

// CompareConfig holds comparison engine settings.
type CompareConfig struct {
	// ProviderTimeout bounds each provider call individually. default: 60s
	ProviderTimeout time.Duration `yaml:"provider_timeout"`

	// Scoring toggles confidence scores on response envelopes. default: true
	Scoring *bool `yaml:"scoring"`

	// MaxPromptSize bounds prompt length in bytes. default: 1 MiB
	MaxPromptSize int `yaml:"max_prompt_size"`
}

// ScoringEnabled resolves the scoring toggle with its default.
func (c CompareConfig) ScoringEnabled() bool {
	return c.Scoring == nil || *c.Scoring
}

// StorageConfig holds state management settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Mode            string          `yaml:"mode"`              // "token", "apikey", "none", default: "token"
	TokenSecret     string          `yaml:"token_secret"`      // HS256 signing key for mode=token
	TokenSecretFile string          `yaml:"token_secret_file"` // _file variant for token_secret
	TokenTTL        time.Duration   `yaml:"token_ttl"`         // default: 24h
	Issuer          string          `yaml:"issuer"`            // default: "arena"
	APIKeys         []APIKeyConfig  `yaml:"api_keys"`          // static keys for mode=apikey
	SeedUsers       []SeedUser      `yaml:"seed_users"`        // accounts created at startup
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string `yaml:"key" json:"key"`
	KeyFile     string `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject     string `yaml:"subject" json:"subject"`
	Role        string `yaml:"role" json:"role"` // "user" or "admin", default: "user"
	ServiceTier string `yaml:"service_tier" json:"service_tier"`
}

// SeedUser describes an account created at startup if absent.
type SeedUser struct {
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
	Role         string `yaml:"role"`          // "user" or "admin", default: "user"
}

// RateLimitConfig holds per-tier request rate limits.
type RateLimitConfig struct {
	DefaultRPM int            `yaml:"default_rpm"` // 0 disables limiting
	Tiers      map[string]int `yaml:"tiers"`       // tier name -> requests per minute
}

// ProviderSeed describes a provider configuration created at startup
// if no config with the same display name exists.
type ProviderSeed struct {
	Name       string  `yaml:"name"`
	Provider   string  `yaml:"provider"` // "gemini", "deepseek", "huggingface"
	APIKey     string  `yaml:"api_key"`
	APIKeyFile string  `yaml:"api_key_file"` // _file variant for api_key
	Endpoint   string  `yaml:"endpoint"`     // empty uses the built-in default
	Model      string  `yaml:"model"`        // empty uses the built-in default
	Score      float64 `yaml:"score"`        // 0 uses the built-in default
	Disabled   bool    `yaml:"disabled"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Compare: CompareConfig{
			ProviderTimeout: 60 * time.Second,
			MaxPromptSize:   1 << 20,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Auth: AuthConfig{
			Mode:     "token",
			TokenTTL: 24 * time.Hour,
			Issuer:   "arena",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
