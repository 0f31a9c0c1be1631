package deepseek

import "time"

// Config holds configuration for the DeepSeek provider adapter.
type Config struct {
	// ConfigID is the provider-config identifier this adapter serves.
	ConfigID string

	// BaseURL is the API root (e.g., "https://api.deepseek.com").
	BaseURL string

	// APIKey for bearer authentication (required).
	APIKey string

	// Model is the wire model name (e.g., "deepseek-chat").
	Model string

	// Label is the display name shown in response envelopes.
	// Defaults to "DeepSeek".
	Label string

	// Timeout for individual HTTP requests. 0 means no timeout.
	Timeout time.Duration

	// Temperature for sampling. Defaults to 0.7.
	Temperature float64
}
