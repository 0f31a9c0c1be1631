package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/debug"
	"github.com/prompt-arena/arena/pkg/provider"
)

// Config holds configuration for the Hugging Face provider adapter.
type Config struct {
	// ConfigID is the provider-config identifier this adapter serves.
	ConfigID string

	// BaseURL is the API root (e.g., "https://api-inference.huggingface.co").
	BaseURL string

	// APIKey for bearer authentication (required).
	APIKey string

	// Model is the repository path (e.g., "mistralai/Mixtral-8x7B-Instruct-v0.1").
	Model string

	// Label is the display name shown in response envelopes.
	// Defaults to "Mixtral".
	Label string

	// Timeout for individual HTTP requests. 0 means no timeout.
	Timeout time.Duration

	// MaxNewTokens caps the generated length. Defaults to 300.
	MaxNewTokens int

	// Temperature for sampling. Defaults to 0.7.
	Temperature float64
}

// inferenceRequest is the text-generation request payload.
type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

// inferenceReply is one element of the text-generation response array.
type inferenceReply struct {
	GeneratedText string `json:"generated_text"`
}

// inferenceError is the Inference API error envelope.
type inferenceError struct {
	Error string `json:"error"`
}

// HuggingFaceProvider implements provider.Provider for the Inference API.
type HuggingFaceProvider struct {
	cfg    Config
	client *http.Client
}

// Ensure HuggingFaceProvider implements provider.Provider at compile time.
var _ provider.Provider = (*HuggingFaceProvider)(nil)

// New creates a HuggingFaceProvider with the given configuration.
func New(cfg Config) (*HuggingFaceProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("huggingface: BaseURL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("huggingface: APIKey is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("huggingface: Model is required")
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Label == "" {
		cfg.Label = "Mixtral"
	}
	if cfg.MaxNewTokens == 0 {
		cfg.MaxNewTokens = 300
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}

	return &HuggingFaceProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ID returns the provider-config identifier.
func (p *HuggingFaceProvider) ID() string {
	return p.cfg.ConfigID
}

// Model returns the display label of the model.
func (p *HuggingFaceProvider) Model() string {
	return p.cfg.Label
}

// Vendor returns the operating vendor label.
func (p *HuggingFaceProvider) Vendor() string {
	return "HuggingFace"
}

// Generate performs a single non-streaming completion attempt.
//
// The Inference API echoes the prompt at the start of generated_text for
// plain text-generation models; the echo is stripped before returning.
func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt string) (*provider.Generation, error) {
	infReq := inferenceRequest{
		Inputs: prompt,
		Parameters: inferenceParameters{
			MaxNewTokens: p.cfg.MaxNewTokens,
			Temperature:  p.cfg.Temperature,
		},
	}

	body, err := json.Marshal(infReq)
	if err != nil {
		return nil, api.NewProviderError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := p.cfg.BaseURL + "/models/" + p.cfg.Model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewProviderError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	debug.Log("providers", "huggingface request", "model", p.cfg.Model)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var replies []inferenceReply
	if err := json.NewDecoder(httpResp.Body).Decode(&replies); err != nil {
		debug.Log("providers", "huggingface malformed 2xx body", "error", err.Error())
		return &provider.Generation{Text: provider.EmptyText}, nil
	}

	text := ""
	if len(replies) > 0 {
		text = strings.TrimSpace(strings.Replace(replies[0].GeneratedText, prompt, "", 1))
	}
	if text == "" {
		text = provider.EmptyText
	}

	// The Inference API does not report token usage.
	return &provider.Generation{Text: text}, nil
}

// Close releases adapter resources.
func (p *HuggingFaceProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// mapHTTPError converts a non-2xx response into a ProviderError using
// the Inference API error envelope when parseable.
func mapHTTPError(resp *http.Response) *api.APIError {
	message := ""
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil && len(data) > 0 {
		var errResp inferenceError
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
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
