// Package registry builds provider adapters from provider configs using
// a declarative per-kind table. Adapter-specific wire knowledge stays in
// the adapter packages; the table only carries defaults (endpoint, model
// and vendor labels, confidence score) for each kind.
package registry

import (
	"fmt"
	"time"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/provider"
	"github.com/prompt-arena/arena/pkg/provider/deepseek"
	"github.com/prompt-arena/arena/pkg/provider/gemini"
	"github.com/prompt-arena/arena/pkg/provider/huggingface"
)

// KindDefaults holds the per-kind defaults applied when a ProviderConfig
// leaves the corresponding field empty. Vendor labels and response text
// paths live in the adapter packages themselves.
type KindDefaults struct {
	Endpoint string
	Model    string
	Score    float64
}

// defaults is the declarative per-kind configuration table.
var defaults = map[api.ProviderKind]KindDefaults{
	api.ProviderKindGemini: {
		Endpoint: "https://generativelanguage.googleapis.com",
		Model:    "gemini-1.5-flash",
		Score:    0.92,
	},
	api.ProviderKindDeepSeek: {
		Endpoint: "https://api.deepseek.com",
		Model:    "deepseek-chat",
		Score:    0.88,
	},
	api.ProviderKindHuggingFace: {
		Endpoint: "https://api-inference.huggingface.co",
		Model:    "mistralai/Mixtral-8x7B-Instruct-v0.1",
		Score:    0.85,
	},
}

// Registry builds Provider adapters from configs.
type Registry struct {
	timeout time.Duration
}

// New creates a registry. The timeout is applied to each adapter's HTTP
// client (0 = no timeout).
func New(timeout time.Duration) *Registry {
	return &Registry{timeout: timeout}
}

// Defaults returns the defaults table entry for a kind.
func Defaults(kind api.ProviderKind) (KindDefaults, bool) {
	d, ok := defaults[kind]
	return d, ok
}

// DefaultScore returns the per-kind confidence constant, or 0 for an
// unknown kind.
func DefaultScore(kind api.ProviderKind) float64 {
	return defaults[kind].Score
}

// Resolve fills empty Endpoint, Model, and Score fields of cfg from the
// defaults table. It returns the config unchanged for unknown kinds.
func Resolve(cfg api.ProviderConfig) api.ProviderConfig {
	d, ok := defaults[cfg.Kind]
	if !ok {
		return cfg
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = d.Endpoint
	}
	if cfg.Model == "" {
		cfg.Model = d.Model
	}
	if cfg.Score == 0 {
		cfg.Score = d.Score
	}
	return cfg
}

// Build constructs the adapter matching cfg.Kind. Unknown kinds return
// an error. The comparison engine folds build errors into an error
// envelope for that provider alone, so they never void the whole
// request.
func (r *Registry) Build(cfg api.ProviderConfig) (provider.Provider, error) {
	cfg = Resolve(cfg)

	switch cfg.Kind {
	case api.ProviderKindGemini:
		return gemini.New(gemini.Config{
			ConfigID: cfg.ID,
			BaseURL:  cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Label:    cfg.DisplayName,
			Timeout:  r.timeout,
		})

	case api.ProviderKindDeepSeek:
		return deepseek.New(deepseek.Config{
			ConfigID: cfg.ID,
			BaseURL:  cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Label:    cfg.DisplayName,
			Timeout:  r.timeout,
		})

	case api.ProviderKindHuggingFace:
		return huggingface.New(huggingface.Config{
			ConfigID: cfg.ID,
			BaseURL:  cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Label:    cfg.DisplayName,
			Timeout:  r.timeout,
		})

	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}
