package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/debug"
	"github.com/prompt-arena/arena/pkg/provider"
)

// DeepSeekProvider implements provider.Provider for the DeepSeek
// Chat Completions API.
type DeepSeekProvider struct {
	cfg    Config
	client *http.Client
}

// Ensure DeepSeekProvider implements provider.Provider at compile time.
var _ provider.Provider = (*DeepSeekProvider)(nil)

// New creates a DeepSeekProvider with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*DeepSeekProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("deepseek: BaseURL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepseek: APIKey is required")
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.Label == "" {
		cfg.Label = "DeepSeek"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}

	return &DeepSeekProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ID returns the provider-config identifier.
func (p *DeepSeekProvider) ID() string {
	return p.cfg.ConfigID
}

// Model returns the display label of the model.
func (p *DeepSeekProvider) Model() string {
	return p.cfg.Label
}

// Vendor returns the operating vendor label.
func (p *DeepSeekProvider) Vendor() string {
	return "DeepSeek"
}

// Generate performs a single non-streaming completion attempt.
func (p *DeepSeekProvider) Generate(ctx context.Context, prompt string) (*provider.Generation, error) {
	chatReq := chatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.cfg.Temperature,
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewProviderError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := p.cfg.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewProviderError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	debug.Log("providers", "deepseek request", "url", url, "model", p.cfg.Model)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, MapHTTPError(httpResp)
	}

	// A 2xx body that fails to parse is treated as an empty reply,
	// not a transport error.
	var chatResp chatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		debug.Log("providers", "deepseek malformed 2xx body", "error", err.Error())
		return &provider.Generation{Text: provider.EmptyText}, nil
	}

	gen := &provider.Generation{Text: provider.EmptyText}
	if len(chatResp.Choices) > 0 && strings.TrimSpace(chatResp.Choices[0].Message.Content) != "" {
		gen.Text = chatResp.Choices[0].Message.Content
	}
	if chatResp.Usage != nil {
		gen.Usage = api.Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		}
	}

	return gen, nil
}

// Close releases adapter resources.
func (p *DeepSeekProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
