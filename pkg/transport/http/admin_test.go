package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/storage/memory"
)

func adminJSON(t *testing.T, a *Adapter, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req = asAdmin(req)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	a, _ := newTestAdapter(t, echoComparer)

	// Plain user identity is rejected on every admin route.
	routes := []struct{ method, path string }{
		{"GET", "/v1/admin/configs"},
		{"POST", "/v1/admin/configs"},
		{"PATCH", "/v1/admin/configs/cfg_x"},
		{"DELETE", "/v1/admin/configs/cfg_x"},
		{"GET", "/v1/admin/analytics"},
	}

	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req = asUser(req)
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s: status = %d, want 403", rt.method, rt.path, rec.Code)
		}
	}
}

func TestListConfigs_EmptyArray(t *testing.T) {
	a, _ := newTestAdapter(t, echoComparer)

	rec := adminJSON(t, a, "GET", "/v1/admin/configs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	// An empty store serializes as [], not null.
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestCreateConfig_AppliesDefaults(t *testing.T) {
	a, store := newTestAdapter(t, echoComparer)

	rec := adminJSON(t, a, "POST", "/v1/admin/configs",
		`{"name":"My Gemini","provider":"gemini","api_key":"g-key"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got api.ProviderConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !api.ValidateConfigID(got.ID) {
		t.Errorf("ID = %q", got.ID)
	}
	if got.DisplayName != "My Gemini" {
		t.Errorf("DisplayName = %q", got.DisplayName)
	}
	// Endpoint, model, and score come from the per-kind defaults.
	if got.Endpoint != "https://generativelanguage.googleapis.com" {
		t.Errorf("Endpoint = %q", got.Endpoint)
	}
	if got.Model != "gemini-1.5-flash" {
		t.Errorf("Model = %q", got.Model)
	}
	if got.Score != 0.92 {
		t.Errorf("Score = %v", got.Score)
	}
	if !got.Active {
		t.Error("new configs default to active")
	}
	// The API key is write-only.
	if strings.Contains(rec.Body.String(), "g-key") {
		t.Error("API key leaked into the response body")
	}

	stored, err := store.GetConfig(context.Background(), got.ID)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if stored.APIKey != "g-key" {
		t.Errorf("stored APIKey = %q", stored.APIKey)
	}
}

func TestCreateConfig_UnknownKind(t *testing.T) {
	a, _ := newTestAdapter(t, echoComparer)

	rec := adminJSON(t, a, "POST", "/v1/admin/configs",
		`{"name":"Mystery","provider":"openai","api_key":"k"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateConfig_PartialPatch(t *testing.T) {
	a, store := newTestAdapter(t, echoComparer)

	cfg := &api.ProviderConfig{
		ID:          api.NewConfigID(),
		DisplayName: "Original",
		Kind:        api.ProviderKindDeepSeek,
		APIKey:      "ds-key",
		Endpoint:    "https://api.deepseek.com",
		Model:       "deepseek-chat",
		Score:       0.88,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	store.AddConfig(context.Background(), cfg)

	rec := adminJSON(t, a, "PATCH", "/v1/admin/configs/"+cfg.ID,
		`{"name":"Renamed","active":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got, _ := store.GetConfig(context.Background(), cfg.ID)
	if got.DisplayName != "Renamed" {
		t.Errorf("DisplayName = %q", got.DisplayName)
	}
	if got.Active {
		t.Error("Active should be patched to false")
	}
	// Untouched fields survive.
	if got.Model != "deepseek-chat" || got.APIKey != "ds-key" || got.Score != 0.88 {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestUpdateConfig_Errors(t *testing.T) {
	a, _ := newTestAdapter(t, echoComparer)

	// Malformed ID.
	rec := adminJSON(t, a, "PATCH", "/v1/admin/configs/not-an-id", `{"name":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed ID: status = %d, want 400", rec.Code)
	}

	// Well-formed but missing.
	rec = adminJSON(t, a, "PATCH", "/v1/admin/configs/"+api.NewConfigID(), `{"name":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing config: status = %d, want 404", rec.Code)
	}
}

func TestDeleteConfig(t *testing.T) {
	a, store := newTestAdapter(t, echoComparer)

	cfg := &api.ProviderConfig{
		ID:     api.NewConfigID(),
		Kind:   api.ProviderKindGemini,
		APIKey: "k",
		Active: true,
	}
	store.AddConfig(context.Background(), cfg)

	rec := adminJSON(t, a, "DELETE", "/v1/admin/configs/"+cfg.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}

	// Deleting again reports not found.
	rec = adminJSON(t, a, "DELETE", "/v1/admin/configs/"+cfg.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestAnalytics(t *testing.T) {
	store := memory.New()
	summarizer := &stubSummarizer{summary: &api.AnalyticsSummary{
		TotalComparisons: 42,
		TotalUsers:       7,
		AverageElapsedMs: 230,
	}}
	a := NewAdapter(echoComparer, store, newTestTokenService(t), summarizer, DefaultConfig())

	rec := adminJSON(t, a, "GET", "/v1/admin/analytics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got api.AnalyticsSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if got.TotalComparisons != 42 || got.TotalUsers != 7 || got.AverageElapsedMs != 230 {
		t.Errorf("summary = %+v", got)
	}
}

func TestAnalytics_NoSummarizer(t *testing.T) {
	a := NewAdapter(echoComparer, memory.New(), nil, nil, DefaultConfig())

	rec := adminJSON(t, a, "GET", "/v1/admin/analytics", "")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}
