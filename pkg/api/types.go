package api

import "time"

// ProviderKind identifies the wire protocol an adapter speaks.
type ProviderKind string

const (
	ProviderKindGemini      ProviderKind = "gemini"
	ProviderKindDeepSeek    ProviderKind = "deepseek"
	ProviderKindHuggingFace ProviderKind = "huggingface"
)

// ProviderConfig describes one configured LLM backend. Configs are owned
// by the admin surface; the comparison engine only ever reads a snapshot
// of the active subset at dispatch time.
type ProviderConfig struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"name"`
	Kind        ProviderKind `json:"provider"`
	APIKey      string       `json:"-"`
	Endpoint    string       `json:"endpoint,omitempty"`
	Model       string       `json:"model,omitempty"`

	// Score is the deterministic confidence constant reported for
	// successful responses from this provider. Zero means "use the
	// per-kind default".
	Score float64 `json:"score,omitempty"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage holds token accounting reported by a provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EnvelopeStatus is the terminal state of one provider's outcome.
type EnvelopeStatus string

const (
	StatusSuccess EnvelopeStatus = "success"
	StatusError   EnvelopeStatus = "error"
)

// ResponseEnvelope is the normalized, display-ready wrapper around one
// provider's outcome. Envelopes are immutable once produced.
type ResponseEnvelope struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Provider   string         `json:"provider"`
	Status     EnvelopeStatus `json:"status"`
	Content    string         `json:"content"`
	Score      *float64       `json:"score,omitempty"`
	Highlights []string       `json:"highlights,omitempty"`
	Error      string         `json:"error,omitempty"`
	Usage      *Usage         `json:"usage,omitempty"`
}

// ComparisonBatch is the ordered collection of envelopes for one request.
// Order is dispatch order (the config snapshot order), independent of
// which provider finished first.
type ComparisonBatch struct {
	ID        string             `json:"id"`
	Responses []ResponseEnvelope `json:"responses"`
}

// CompareRequest is the body of POST /v1/compare. Model optionally
// restricts the fan-out to a single named provider config.
type CompareRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// CompareResponse is the aggregated result returned to the caller.
// Partial or even total provider failure is still a normal response.
type CompareResponse struct {
	ID        string             `json:"id"`
	Responses []ResponseEnvelope `json:"responses"`
}

// CompletionRecord is the per-request summary emitted to the completion
// log when a comparison finishes. Append-only, fire-and-forget.
type CompletionRecord struct {
	ID                 string    `json:"id"`
	RequestID          string    `json:"request_id"`
	UserID             string    `json:"user_id"`
	Prompt             string    `json:"prompt"`
	ElapsedMs          int64     `json:"elapsed_ms"`
	ProvidersAttempted []string  `json:"providers_attempted"`
	ProvidersSucceeded []string  `json:"providers_succeeded"`
	CreatedAt          time.Time `json:"created_at"`
}

// Role distinguishes regular users from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered account. PasswordHash holds a salted hash,
// never the plaintext password.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// AnalyticsSummary is the admin dashboard payload.
type AnalyticsSummary struct {
	TotalComparisons int               `json:"total_comparisons"`
	TotalUsers       int               `json:"total_users"`
	AverageElapsedMs int64             `json:"average_elapsed_ms"`
	ProviderUsage    []ProviderUsage   `json:"provider_usage"`
	ComparisonsByDay []DailyComparison `json:"comparisons_by_day"`
}

// ProviderUsage counts how often one provider appeared in comparisons.
type ProviderUsage struct {
	Provider string `json:"provider"`
	Count    int    `json:"count"`
}

// DailyComparison is one day's comparison count in the trend series.
type DailyComparison struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}
