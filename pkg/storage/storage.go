package storage

import (
	"context"

	"github.com/prompt-arena/arena/pkg/api"
)

// UserStore handles persistence of user accounts.
type UserStore interface {
	// AddUser persists a new user. Returns ErrConflict if a user with
	// the same email already exists.
	AddUser(ctx context.Context, u *api.User) error

	// GetUser retrieves a user by ID. Returns ErrNotFound if absent.
	GetUser(ctx context.Context, id string) (*api.User, error)

	// GetUserByEmail retrieves a user by email. Returns ErrNotFound if absent.
	GetUserByEmail(ctx context.Context, email string) (*api.User, error)

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) (int, error)
}

// ConfigStore handles persistence of provider configurations.
type ConfigStore interface {
	// AddConfig persists a new provider config. Returns ErrConflict if
	// the ID is already taken.
	AddConfig(ctx context.Context, cfg *api.ProviderConfig) error

	// GetConfig retrieves a config by ID. Returns ErrNotFound if absent.
	GetConfig(ctx context.Context, id string) (*api.ProviderConfig, error)

	// UpdateConfig replaces the stored config with the same ID.
	// Returns ErrNotFound if absent.
	UpdateConfig(ctx context.Context, cfg *api.ProviderConfig) error

	// DeleteConfig removes a config by ID. Returns ErrNotFound if absent.
	DeleteConfig(ctx context.Context, id string) error

	// ListConfigs returns all configs in insertion order.
	ListConfigs(ctx context.Context) ([]api.ProviderConfig, error)

	// ListActiveConfigs returns the currently active subset in insertion
	// order. The result is a snapshot: callers may hold it for the
	// duration of a request without seeing concurrent admin mutations.
	ListActiveConfigs(ctx context.Context) ([]api.ProviderConfig, error)
}

// LogStore handles the append-only completion log.
type LogStore interface {
	// AppendCompletion appends one completion record. Appends from
	// overlapping requests must not interleave-corrupt.
	AppendCompletion(ctx context.Context, rec api.CompletionRecord) error

	// ListCompletions returns all records in append order.
	ListCompletions(ctx context.Context) ([]api.CompletionRecord, error)
}

// Store is the aggregate repository consumed by the service wiring.
type Store interface {
	UserStore
	ConfigStore
	LogStore

	// HealthCheck verifies the backing store is functional.
	HealthCheck(ctx context.Context) error

	// Close releases connections and resources.
	Close() error
}
