package config

import (
	"errors"
	"fmt"
)

// knownProviderKinds mirrors the kinds the provider registry can build.
var knownProviderKinds = map[string]bool{
	"gemini":      true,
	"deepseek":    true,
	"huggingface": true,
}

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// compare.max_prompt_size must be positive.
	if c.Compare.MaxPromptSize <= 0 {
		errs = append(errs, fmt.Errorf("compare.max_prompt_size must be > 0, got %d", c.Compare.MaxPromptSize))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	// auth.mode must be a known value.
	switch c.Auth.Mode {
	case "none", "apikey", "token":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be \"none\", \"apikey\", or \"token\", got %q", c.Auth.Mode))
	}

	// token mode needs a signing secret.
	if c.Auth.Mode == "token" {
		if c.Auth.TokenSecret == "" && c.Auth.TokenSecretFile == "" {
			errs = append(errs, fmt.Errorf("auth.token_secret or auth.token_secret_file is required when auth.mode is \"token\""))
		}
	}

	// api key roles must be valid when set.
	for i, key := range c.Auth.APIKeys {
		switch key.Role {
		case "", "user", "admin":
			// valid
		default:
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].role must be \"user\" or \"admin\", got %q", i, key.Role))
		}
	}

	// seed users need an email and a valid role.
	for i, user := range c.Auth.SeedUsers {
		if user.Email == "" {
			errs = append(errs, fmt.Errorf("auth.seed_users[%d].email is required", i))
		}
		if user.Password == "" && user.PasswordFile == "" {
			errs = append(errs, fmt.Errorf("auth.seed_users[%d].password or password_file is required", i))
		}
		switch user.Role {
		case "", "user", "admin":
			// valid
		default:
			errs = append(errs, fmt.Errorf("auth.seed_users[%d].role must be \"user\" or \"admin\", got %q", i, user.Role))
		}
	}

	// provider seeds need a known kind.
	for i, seed := range c.Providers {
		if !knownProviderKinds[seed.Provider] {
			errs = append(errs, fmt.Errorf("providers[%d].provider must be one of \"gemini\", \"deepseek\", \"huggingface\", got %q", i, seed.Provider))
		}
		if seed.Score < 0 || seed.Score > 1 {
			errs = append(errs, fmt.Errorf("providers[%d].score must be in [0, 1], got %v", i, seed.Score))
		}
	}

	return errors.Join(errs...)
}
