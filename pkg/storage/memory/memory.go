// Package memory provides an in-memory implementation of storage.Store
// for testing and demo-scale deployments. All data is lost when the
// process restarts.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/storage"
)

// Store is an in-memory storage.Store. Maps are guarded by a single
// RWMutex; the completion log is a plain append-only slice, so appends
// from overlapping requests serialize on the write lock and never
// interleave.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*api.User
	configs     map[string]*api.ProviderConfig
	configOrder []string
	completions []api.CompletionRecord
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:   make(map[string]*api.User),
		configs: make(map[string]*api.ProviderConfig),
	}
}

// AddUser persists a new user. Email comparison is case-insensitive.
func (s *Store) AddUser(_ context.Context, u *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return storage.ErrConflict
		}
	}
	if _, ok := s.users[u.ID]; ok {
		return storage.ErrConflict
	}

	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(_ context.Context, id string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive).
func (s *Store) GetUserByEmail(_ context.Context, email string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// AddConfig persists a new provider config.
func (s *Store) AddConfig(_ context.Context, cfg *api.ProviderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[cfg.ID]; ok {
		return storage.ErrConflict
	}

	cp := *cfg
	s.configs[cfg.ID] = &cp
	s.configOrder = append(s.configOrder, cfg.ID)
	return nil
}

// GetConfig retrieves a config by ID.
func (s *Store) GetConfig(_ context.Context, id string) (*api.ProviderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *cfg
	return &cp, nil
}

// UpdateConfig replaces the stored config with the same ID.
func (s *Store) UpdateConfig(_ context.Context, cfg *api.ProviderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[cfg.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *cfg
	s.configs[cfg.ID] = &cp
	return nil
}

// DeleteConfig removes a config by ID.
func (s *Store) DeleteConfig(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.configs, id)
	for i, cid := range s.configOrder {
		if cid == id {
			s.configOrder = append(s.configOrder[:i], s.configOrder[i+1:]...)
			break
		}
	}
	return nil
}

// ListConfigs returns all configs in insertion order.
func (s *Store) ListConfigs(_ context.Context) ([]api.ProviderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.ProviderConfig, 0, len(s.configOrder))
	for _, id := range s.configOrder {
		out = append(out, *s.configs[id])
	}
	return out, nil
}

// ListActiveConfigs returns the active subset in insertion order as a
// snapshot copy.
func (s *Store) ListActiveConfigs(_ context.Context) ([]api.ProviderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []api.ProviderConfig
	for _, id := range s.configOrder {
		if s.configs[id].Active {
			out = append(out, *s.configs[id])
		}
	}
	return out, nil
}

// AppendCompletion appends one completion record.
func (s *Store) AppendCompletion(_ context.Context, rec api.CompletionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions = append(s.completions, rec)
	return nil
}

// ListCompletions returns all records in append order.
func (s *Store) ListCompletions(_ context.Context) ([]api.CompletionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.CompletionRecord, len(s.completions))
	copy(out, s.completions)
	return out, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
