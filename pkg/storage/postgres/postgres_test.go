package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/storage"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("arena_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func uniq(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func TestPostgres_Users(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id := uniq("usr")
	email := id + "@example.com"
	u := &api.User{
		ID:           id,
		Email:        email,
		PasswordHash: "$2a$12$hash",
		Role:         api.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.AddUser(ctx, u); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	got, err := store.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Email != email || got.Role != api.RoleAdmin {
		t.Errorf("got %+v", got)
	}

	// Email lookup is case-insensitive.
	byEmail, err := store.GetUserByEmail(ctx, strings.ToUpper(email))
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != id {
		t.Errorf("ID = %q, want %q", byEmail.ID, id)
	}

	// Duplicate email conflicts regardless of case.
	dup := &api.User{ID: uniq("usr"), Email: strings.ToUpper(email), PasswordHash: "x"}
	if err := store.AddUser(ctx, dup); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate email = %v, want ErrConflict", err)
	}

	n, err := store.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if n < 1 {
		t.Errorf("CountUsers = %d, want >= 1", n)
	}
}

func TestPostgres_GetUserNotFound(t *testing.T) {
	store := setupTestDB(t)

	if _, err := store.GetUser(context.Background(), "usr_nonexistent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_ConfigCRUD(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id := uniq("cfg")
	cfg := &api.ProviderConfig{
		ID:          id,
		DisplayName: "Gemini Flash",
		Kind:        api.ProviderKindGemini,
		APIKey:      "test-key",
		Endpoint:    "https://generativelanguage.googleapis.com",
		Model:       "gemini-1.5-flash",
		Score:       0.92,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.AddConfig(ctx, cfg); err != nil {
		t.Fatalf("AddConfig failed: %v", err)
	}

	got, err := store.GetConfig(ctx, id)
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if got.DisplayName != "Gemini Flash" || got.Score != 0.92 || !got.Active {
		t.Errorf("got %+v", got)
	}

	got.DisplayName = "Renamed"
	got.Active = false
	if err := store.UpdateConfig(ctx, got); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	got, _ = store.GetConfig(ctx, id)
	if got.DisplayName != "Renamed" || got.Active {
		t.Errorf("after update: %+v", got)
	}

	if err := store.UpdateConfig(ctx, &api.ProviderConfig{ID: "cfg_nonexistent"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateConfig(missing) = %v, want ErrNotFound", err)
	}

	if err := store.DeleteConfig(ctx, id); err != nil {
		t.Fatalf("DeleteConfig failed: %v", err)
	}
	if _, err := store.GetConfig(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteConfig(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteConfig(deleted) = %v, want ErrNotFound", err)
	}
}

func TestPostgres_ConfigListOrder(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	ids := []string{uniq("cfg_a"), uniq("cfg_b"), uniq("cfg_c")}
	for i, id := range ids {
		cfg := &api.ProviderConfig{
			ID:        id,
			Kind:      api.ProviderKindDeepSeek,
			APIKey:    "k",
			Active:    i != 1, // middle one inactive
			CreatedAt: time.Now().UTC(),
		}
		if err := store.AddConfig(ctx, cfg); err != nil {
			t.Fatalf("AddConfig failed: %v", err)
		}
	}

	all, err := store.ListConfigs(ctx)
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, id := range ids {
		if all[i].ID != id {
			t.Errorf("order[%d] = %q, want %q (insertion order)", i, all[i].ID, id)
		}
	}

	active, err := store.ListActiveConfigs(ctx)
	if err != nil {
		t.Fatalf("ListActiveConfigs failed: %v", err)
	}
	if len(active) != 2 || active[0].ID != ids[0] || active[1].ID != ids[2] {
		t.Errorf("active = %+v", active)
	}
}

func TestPostgres_Completions(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	ids := []string{uniq("log_a"), uniq("log_b")}
	for _, id := range ids {
		rec := api.CompletionRecord{
			ID:                 id,
			RequestID:          "req_" + id,
			UserID:             "usr_1",
			Prompt:             "tell me a fact",
			ElapsedMs:          420,
			ProvidersAttempted: []string{"cfg_1", "cfg_2"},
			ProvidersSucceeded: []string{"cfg_1"},
			CreatedAt:          time.Now().UTC(),
		}
		if err := store.AppendCompletion(ctx, rec); err != nil {
			t.Fatalf("AppendCompletion failed: %v", err)
		}
	}

	recs, err := store.ListCompletions(ctx)
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	for i, id := range ids {
		if recs[i].ID != id {
			t.Errorf("order[%d] = %q, want %q (append order)", i, recs[i].ID, id)
		}
	}
	if got := recs[0].ProvidersAttempted; len(got) != 2 || got[0] != "cfg_1" {
		t.Errorf("ProvidersAttempted = %v", got)
	}
	if got := recs[0].ProvidersSucceeded; len(got) != 1 || got[0] != "cfg_1" {
		t.Errorf("ProvidersSucceeded = %v", got)
	}
	if recs[0].ElapsedMs != 420 {
		t.Errorf("ElapsedMs = %d", recs[0].ElapsedMs)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
