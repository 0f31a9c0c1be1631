package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, ARENA_CONFIG env, ./config.yaml, /etc/arena/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. ARENA_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/arena/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check ARENA_CONFIG env var.
	if envPath := os.Getenv("ARENA_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/arena/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ARENA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ARENA_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("ARENA_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("ARENA_AUTH_MODE"); v != "" {
		cfg.Auth.Mode = v
	}
	if v := os.Getenv("ARENA_TOKEN_SECRET"); v != "" {
		cfg.Auth.TokenSecret = v
	}
	if v := os.Getenv("ARENA_PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Compare.ProviderTimeout = d
		}
	}
	if v := os.Getenv("ARENA_SCORING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Compare.Scoring = &b
		}
	}

	// Per-vendor API keys override matching provider seeds.
	applyProviderKeyEnv(cfg, "gemini", "ARENA_GEMINI_API_KEY")
	applyProviderKeyEnv(cfg, "deepseek", "ARENA_DEEPSEEK_API_KEY")
	applyProviderKeyEnv(cfg, "huggingface", "ARENA_HUGGINGFACE_API_KEY")

	// ARENA_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("ARENA_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}
}

// applyProviderKeyEnv sets the API key on every seed of the given kind.
// If the env var is set but no seed of that kind exists, a default seed
// is appended so exporting a key is enough to enable the provider.
func applyProviderKeyEnv(cfg *Config, kind, envVar string) {
	v := os.Getenv(envVar)
	if v == "" {
		return
	}

	found := false
	for i := range cfg.Providers {
		if cfg.Providers[i].Provider == kind {
			cfg.Providers[i].APIKey = v
			found = true
		}
	}
	if !found {
		cfg.Providers = append(cfg.Providers, ProviderSeed{
			Provider: kind,
			APIKey:   v,
		})
	}
}

// parseAPIKeysJSON parses a JSON array of API key configurations.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing API keys JSON: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// auth.token_secret_file -> auth.token_secret
	if cfg.Auth.TokenSecretFile != "" && cfg.Auth.TokenSecret == "" {
		val, err := readSecretFile(cfg.Auth.TokenSecretFile)
		if err != nil {
			return fmt.Errorf("auth.token_secret_file: %w", err)
		}
		cfg.Auth.TokenSecret = val
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	// auth.seed_users[*].password_file -> auth.seed_users[*].password
	for i := range cfg.Auth.SeedUsers {
		if cfg.Auth.SeedUsers[i].PasswordFile != "" && cfg.Auth.SeedUsers[i].Password == "" {
			val, err := readSecretFile(cfg.Auth.SeedUsers[i].PasswordFile)
			if err != nil {
				return fmt.Errorf("auth.seed_users[%d].password_file: %w", i, err)
			}
			cfg.Auth.SeedUsers[i].Password = val
		}
	}

	// providers[*].api_key_file -> providers[*].api_key
	for i := range cfg.Providers {
		if cfg.Providers[i].APIKeyFile != "" && cfg.Providers[i].APIKey == "" {
			val, err := readSecretFile(cfg.Providers[i].APIKeyFile)
			if err != nil {
				return fmt.Errorf("providers[%d].api_key_file: %w", i, err)
			}
			cfg.Providers[i].APIKey = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
