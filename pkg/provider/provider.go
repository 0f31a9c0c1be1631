package provider

import (
	"context"

	"github.com/prompt-arena/arena/pkg/api"
)

// Provider abstracts one external LLM backend. The interface is
// protocol-agnostic: each adapter handles its own wire format internally.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// ID returns the provider-config identifier this adapter was built from.
	ID() string

	// Model returns the display label of the model (e.g., "Gemini").
	Model() string

	// Vendor returns the display label of the operating vendor (e.g., "Google").
	Vendor() string

	// Generate performs a single non-streaming completion attempt.
	//
	// A provider answering 200 with an empty or unexpectedly shaped body
	// is not a failure: adapters substitute the text "No response" and
	// return a Generation. Errors are reserved for transport failures,
	// non-2xx statuses, and timeouts, and are always *api.APIError values.
	// No retries are performed.
	Generate(ctx context.Context, prompt string) (*Generation, error)

	// Close releases adapter resources (HTTP clients, connections).
	Close() error
}

// Generation is a backend's normalized successful reply.
type Generation struct {
	Text  string
	Usage api.Usage
}

// EmptyText is the placeholder adapters return when a backend answers
// 2xx but the expected reply field is absent or blank.
const EmptyText = "No response"
