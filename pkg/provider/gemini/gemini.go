package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/debug"
	"github.com/prompt-arena/arena/pkg/provider"
)

// Config holds configuration for the Gemini provider adapter.
type Config struct {
	// ConfigID is the provider-config identifier this adapter serves.
	ConfigID string

	// BaseURL is the API root (e.g., "https://generativelanguage.googleapis.com").
	BaseURL string

	// APIKey is passed as the "key" query parameter (required).
	APIKey string

	// Model is the wire model name (e.g., "gemini-1.5-flash").
	Model string

	// Label is the display name shown in response envelopes.
	// Defaults to "Gemini".
	Label string

	// Timeout for individual HTTP requests. 0 means no timeout.
	Timeout time.Duration
}

// GeminiProvider implements provider.Provider for the Generative
// Language API.
type GeminiProvider struct {
	cfg    Config
	client *http.Client
}

// Ensure GeminiProvider implements provider.Provider at compile time.
var _ provider.Provider = (*GeminiProvider)(nil)

// New creates a GeminiProvider with the given configuration.
func New(cfg Config) (*GeminiProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gemini: BaseURL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: APIKey is required")
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Label == "" {
		cfg.Label = "Gemini"
	}

	return &GeminiProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ID returns the provider-config identifier.
func (p *GeminiProvider) ID() string {
	return p.cfg.ConfigID
}

// Model returns the display label of the model.
func (p *GeminiProvider) Model() string {
	return p.cfg.Label
}

// Vendor returns the operating vendor label.
func (p *GeminiProvider) Vendor() string {
	return "Google"
}

// Generate performs a single non-streaming completion attempt.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (*provider.Generation, error) {
	genReq := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, api.NewProviderError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	reqURL := fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s",
		p.cfg.BaseURL, p.cfg.Model, url.QueryEscape(p.cfg.APIKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewProviderError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	debug.Log("providers", "gemini request", "model", p.cfg.Model)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var genResp generateContentResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&genResp); err != nil {
		debug.Log("providers", "gemini malformed 2xx body", "error", err.Error())
		return &provider.Generation{Text: provider.EmptyText}, nil
	}

	gen := &provider.Generation{Text: provider.EmptyText}
	if len(genResp.Candidates) > 0 && len(genResp.Candidates[0].Content.Parts) > 0 {
		if text := genResp.Candidates[0].Content.Parts[0].Text; strings.TrimSpace(text) != "" {
			gen.Text = text
		}
	}
	if genResp.Usage != nil {
		gen.Usage = api.Usage{
			PromptTokens:     genResp.Usage.PromptTokenCount,
			CompletionTokens: genResp.Usage.CandidatesTokenCount,
			TotalTokens:      genResp.Usage.TotalTokenCount,
		}
	}

	return gen, nil
}

// Close releases adapter resources.
func (p *GeminiProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// mapHTTPError converts a non-2xx response into a ProviderError using
// the Google API error envelope when parseable.
func mapHTTPError(resp *http.Response) *api.APIError {
	message := ""
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil && len(data) > 0 {
		var errResp apiErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
	}
	if message == "" {
		message = fmt.Sprintf("backend returned HTTP %d", resp.StatusCode)
	}
	return api.NewProviderError(message)
}

func mapNetworkError(err error) *api.APIError {
	return api.NewProviderError(fmt.Sprintf("backend connection error: %s", err.Error()))
}
