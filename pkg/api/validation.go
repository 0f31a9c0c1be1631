package api

import (
	"fmt"
	"strings"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	// MaxPromptSize caps the prompt length in bytes (0 = no cap).
	MaxPromptSize int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxPromptSize: 1 << 20, // 1 MB
	}
}

// ValidateCompareRequest checks a CompareRequest for validity and returns
// the trimmed prompt. It returns an *APIError describing the first
// validation failure, or nil if the request is valid.
//
// The prompt content is returned unchanged apart from surrounding
// whitespace removal.
func ValidateCompareRequest(req *CompareRequest, cfg ValidationConfig) (string, *APIError) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", NewInvalidRequestError("prompt", "prompt is required")
	}

	if cfg.MaxPromptSize > 0 && len(prompt) > cfg.MaxPromptSize {
		return "", NewInvalidRequestError("prompt",
			fmt.Sprintf("prompt exceeds maximum of %d bytes", cfg.MaxPromptSize))
	}

	return prompt, nil
}

// ValidateProviderConfig checks a ProviderConfig before it is stored.
func ValidateProviderConfig(cfg *ProviderConfig) *APIError {
	if strings.TrimSpace(cfg.DisplayName) == "" {
		return NewInvalidRequestError("name", "name is required")
	}
	if cfg.Kind == "" {
		return NewInvalidRequestError("provider", "provider kind is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewInvalidRequestError("api_key", "API key is required")
	}
	if cfg.Score < 0 || cfg.Score > 1 {
		return NewInvalidRequestError("score", "score must be between 0.0 and 1.0")
	}
	return nil
}
