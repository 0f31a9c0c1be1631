package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/debug"
	"github.com/prompt-arena/arena/pkg/provider/registry"
	"github.com/prompt-arena/arena/pkg/storage"
	"github.com/prompt-arena/arena/pkg/transport"
)

// configRequest is the admin payload for creating and updating provider
// configs. The API key is write-only: it is accepted here but never
// serialized back out on ProviderConfig.
type configRequest struct {
	Name     string           `json:"name"`
	Kind     api.ProviderKind `json:"provider"`
	APIKey   string           `json:"api_key"`
	Endpoint string           `json:"endpoint"`
	Model    string           `json:"model"`
	Score    *float64         `json:"score"`
	Active   *bool            `json:"active"`
}

// handleListConfigs handles GET /v1/admin/configs.
func (a *Adapter) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := a.store.ListConfigs(r.Context())
	if err != nil {
		transport.WriteAPIError(w, api.NewServerError("listing provider configs failed"))
		return
	}
	if configs == nil {
		configs = []api.ProviderConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

// handleCreateConfig handles POST /v1/admin/configs. Unset endpoint,
// model, and score fall back to the registry defaults for the kind.
func (a *Adapter) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[configRequest](a, w, r)
	if !ok {
		return
	}

	cfg := api.ProviderConfig{
		ID:          api.NewConfigID(),
		DisplayName: req.Name,
		Kind:        req.Kind,
		APIKey:      req.APIKey,
		Endpoint:    req.Endpoint,
		Model:       req.Model,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if req.Score != nil {
		cfg.Score = *req.Score
	}
	if req.Active != nil {
		cfg.Active = *req.Active
	}

	if _, known := registry.Defaults(cfg.Kind); !known {
		transport.WriteAPIError(w, api.NewInvalidRequestError("provider", "unknown provider kind"))
		return
	}
	cfg = registry.Resolve(cfg)

	if apiErr := api.ValidateProviderConfig(&cfg); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	if err := a.store.AddConfig(r.Context(), &cfg); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			transport.WriteAPIError(w, api.NewConflictError("config ID already exists"))
			return
		}
		transport.WriteAPIError(w, api.NewServerError("storing provider config failed"))
		return
	}

	debug.Log("config", "provider config created", "config_id", cfg.ID, "kind", cfg.Kind)
	writeJSON(w, http.StatusCreated, cfg)
}

// handleUpdateConfig handles PATCH /v1/admin/configs/{id}. Only fields
// present in the body are changed.
func (a *Adapter) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateConfigID(id) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed config ID"))
		return
	}

	req, ok := decodeJSON[configRequest](a, w, r)
	if !ok {
		return
	}

	cfg, err := a.store.GetConfig(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			transport.WriteAPIError(w, api.NewNotFoundError("config "+id+" not found"))
			return
		}
		transport.WriteAPIError(w, api.NewServerError("loading provider config failed"))
		return
	}

	if req.Name != "" {
		cfg.DisplayName = req.Name
	}
	if req.Kind != "" {
		if _, known := registry.Defaults(req.Kind); !known {
			transport.WriteAPIError(w, api.NewInvalidRequestError("provider", "unknown provider kind"))
			return
		}
		cfg.Kind = req.Kind
	}
	if req.APIKey != "" {
		cfg.APIKey = req.APIKey
	}
	if req.Endpoint != "" {
		cfg.Endpoint = req.Endpoint
	}
	if req.Model != "" {
		cfg.Model = req.Model
	}
	if req.Score != nil {
		cfg.Score = *req.Score
	}
	if req.Active != nil {
		cfg.Active = *req.Active
	}

	if apiErr := api.ValidateProviderConfig(cfg); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	if err := a.store.UpdateConfig(r.Context(), cfg); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			transport.WriteAPIError(w, api.NewNotFoundError("config "+id+" not found"))
			return
		}
		transport.WriteAPIError(w, api.NewServerError("updating provider config failed"))
		return
	}

	debug.Log("config", "provider config updated", "config_id", cfg.ID)
	writeJSON(w, http.StatusOK, cfg)
}

// handleDeleteConfig handles DELETE /v1/admin/configs/{id}.
func (a *Adapter) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateConfigID(id) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed config ID"))
		return
	}

	if err := a.store.DeleteConfig(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			transport.WriteAPIError(w, api.NewNotFoundError("config "+id+" not found"))
			return
		}
		transport.WriteAPIError(w, api.NewServerError("deleting provider config failed"))
		return
	}

	debug.Log("config", "provider config deleted", "config_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalytics handles GET /v1/admin/analytics.
func (a *Adapter) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if a.summarizer == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "analytics is not available"),
			http.StatusNotImplemented,
		)
		return
	}

	summary, err := a.summarizer.Summary(r.Context())
	if err != nil {
		transport.WriteAPIError(w, api.NewServerError("computing analytics failed"))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
