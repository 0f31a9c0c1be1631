// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and JSONB for the provider lists
// on completion log rows.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// AddUser persists a new user account.
func (s *Store) AddUser(ctx context.Context, u *api.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*api.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	return s.getUser(ctx, "lower(email) = lower($1)", email)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*api.User, error) {
	var u api.User
	var role string

	err := s.pool.QueryRow(ctx,
		"SELECT id, email, password_hash, role, created_at FROM users WHERE "+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	u.Role = api.Role(role)
	return &u, nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// AddConfig persists a new provider config.
func (s *Store) AddConfig(ctx context.Context, cfg *api.ProviderConfig) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO provider_configs (id, display_name, kind, api_key, endpoint, model, score, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, cfg.ID, cfg.DisplayName, string(cfg.Kind), cfg.APIKey, cfg.Endpoint, cfg.Model, cfg.Score, cfg.Active, cfg.CreatedAt)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting provider config: %w", err)
	}

	return nil
}

// GetConfig retrieves a provider config by ID.
func (s *Store) GetConfig(ctx context.Context, id string) (*api.ProviderConfig, error) {
	var cfg api.ProviderConfig
	var kind string

	err := s.pool.QueryRow(ctx, `
		SELECT id, display_name, kind, api_key, endpoint, model, score, active, created_at
		FROM provider_configs WHERE id = $1
	`, id).Scan(&cfg.ID, &cfg.DisplayName, &kind, &cfg.APIKey, &cfg.Endpoint, &cfg.Model, &cfg.Score, &cfg.Active, &cfg.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying provider config: %w", err)
	}

	cfg.Kind = api.ProviderKind(kind)
	return &cfg, nil
}

// UpdateConfig replaces the stored config with the same ID.
func (s *Store) UpdateConfig(ctx context.Context, cfg *api.ProviderConfig) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE provider_configs
		SET display_name = $2, kind = $3, api_key = $4, endpoint = $5, model = $6, score = $7, active = $8
		WHERE id = $1
	`, cfg.ID, cfg.DisplayName, string(cfg.Kind), cfg.APIKey, cfg.Endpoint, cfg.Model, cfg.Score, cfg.Active)

	if err != nil {
		return fmt.Errorf("updating provider config: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// DeleteConfig removes a provider config by ID.
func (s *Store) DeleteConfig(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM provider_configs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting provider config: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListConfigs returns all provider configs in insertion order.
func (s *Store) ListConfigs(ctx context.Context) ([]api.ProviderConfig, error) {
	return s.listConfigs(ctx, "")
}

// ListActiveConfigs returns the active subset in insertion order.
func (s *Store) ListActiveConfigs(ctx context.Context) ([]api.ProviderConfig, error) {
	return s.listConfigs(ctx, "WHERE active")
}

func (s *Store) listConfigs(ctx context.Context, where string) ([]api.ProviderConfig, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, display_name, kind, api_key, endpoint, model, score, active, created_at
		FROM provider_configs %s ORDER BY position
	`, where))
	if err != nil {
		return nil, fmt.Errorf("querying provider configs: %w", err)
	}
	defer rows.Close()

	var out []api.ProviderConfig
	for rows.Next() {
		var cfg api.ProviderConfig
		var kind string
		if err := rows.Scan(&cfg.ID, &cfg.DisplayName, &kind, &cfg.APIKey, &cfg.Endpoint, &cfg.Model, &cfg.Score, &cfg.Active, &cfg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning provider config: %w", err)
		}
		cfg.Kind = api.ProviderKind(kind)
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provider configs: %w", err)
	}

	return out, nil
}

// AppendCompletion appends one completion record.
func (s *Store) AppendCompletion(ctx context.Context, rec api.CompletionRecord) error {
	attempted, err := json.Marshal(rec.ProvidersAttempted)
	if err != nil {
		return fmt.Errorf("marshaling attempted providers: %w", err)
	}
	succeeded, err := json.Marshal(rec.ProvidersSucceeded)
	if err != nil {
		return fmt.Errorf("marshaling succeeded providers: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO completion_log (id, request_id, user_id, prompt, elapsed_ms, providers_attempted, providers_succeeded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID, rec.RequestID, rec.UserID, rec.Prompt, rec.ElapsedMs, attempted, succeeded, rec.CreatedAt)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting completion record: %w", err)
	}

	return nil
}

// ListCompletions returns all records in append order.
func (s *Store) ListCompletions(ctx context.Context) ([]api.CompletionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, request_id, user_id, prompt, elapsed_ms, providers_attempted, providers_succeeded, created_at
		FROM completion_log ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying completion log: %w", err)
	}
	defer rows.Close()

	var out []api.CompletionRecord
	for rows.Next() {
		var rec api.CompletionRecord
		var attempted, succeeded []byte
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.UserID, &rec.Prompt, &rec.ElapsedMs, &attempted, &succeeded, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning completion record: %w", err)
		}
		if err := json.Unmarshal(attempted, &rec.ProvidersAttempted); err != nil {
			return nil, fmt.Errorf("unmarshaling attempted providers: %w", err)
		}
		if err := json.Unmarshal(succeeded, &rec.ProvidersSucceeded); err != nil {
			return nil, fmt.Errorf("unmarshaling succeeded providers: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating completion log: %w", err)
	}

	return out, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
