package compare

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/auth"
	"github.com/prompt-arena/arena/pkg/debug"
	"github.com/prompt-arena/arena/pkg/observability"
	"github.com/prompt-arena/arena/pkg/provider"
	"github.com/prompt-arena/arena/pkg/storage"
	"github.com/prompt-arena/arena/pkg/transport"
)

// Builder constructs a provider adapter from a config.
// *registry.Registry satisfies this interface.
type Builder interface {
	Build(cfg api.ProviderConfig) (provider.Provider, error)
}

// Recorder receives one completion record per finished comparison.
// Implementations must not block the caller.
type Recorder interface {
	Record(rec api.CompletionRecord)
}

// Config holds comparison engine settings.
type Config struct {
	// ProviderTimeout bounds each adapter call individually. A slow
	// provider degrades to an error envelope for that provider alone
	// and never cancels siblings. 0 disables the timeout.
	ProviderTimeout time.Duration

	// Scoring controls whether envelopes carry confidence scores.
	Scoring bool

	// Validation holds request validation limits.
	Validation api.ValidationConfig
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ProviderTimeout: 60 * time.Second,
		Scoring:         true,
		Validation:      api.DefaultValidationConfig(),
	}
}

// Engine is the fan-out comparison coordinator.
type Engine struct {
	configs  storage.ConfigStore
	builder  Builder
	recorder Recorder
	cfg      Config
}

// Ensure Engine implements transport.Comparer at compile time.
var _ transport.Comparer = (*Engine)(nil)

// New creates an Engine. The recorder is optional (nil disables
// completion records).
func New(configs storage.ConfigStore, builder Builder, recorder Recorder, cfg Config) (*Engine, error) {
	if configs == nil {
		return nil, fmt.Errorf("compare: config store is required")
	}
	if builder == nil {
		return nil, fmt.Errorf("compare: provider builder is required")
	}
	return &Engine{
		configs:  configs,
		builder:  builder,
		recorder: recorder,
		cfg:      cfg,
	}, nil
}

// Compare validates the request, snapshots the active provider configs,
// fans the prompt out to every matching adapter, and returns the
// normalized batch. Provider failures never fail the request; an empty
// active set yields an empty batch.
func (e *Engine) Compare(ctx context.Context, req *api.CompareRequest) (*api.CompareResponse, error) {
	start := time.Now()

	prompt, apiErr := api.ValidateCompareRequest(req, e.cfg.Validation)
	if apiErr != nil {
		return nil, apiErr
	}

	// Snapshot the active configs once. Admin mutations after this point
	// do not affect the in-flight request.
	snapshot, err := e.configs.ListActiveConfigs(ctx)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("loading provider configs: %s", err.Error()))
	}

	if req.Model != "" {
		snapshot = filterByModel(snapshot, req.Model)
		if len(snapshot) == 0 {
			return nil, api.NewInvalidRequestError("model",
				fmt.Sprintf("no active provider matches %q", req.Model))
		}
	}

	batch := e.run(ctx, prompt, snapshot)
	observability.CompareBatchSize.Observe(float64(len(snapshot)))

	e.record(ctx, batch, prompt, snapshot, time.Since(start))

	return &api.CompareResponse{ID: batch.ID, Responses: batch.Responses}, nil
}

// run dispatches one goroutine per config and joins with all-settled
// semantics: every adapter reaches a terminal state before the batch is
// assembled. Batch order equals snapshot order regardless of completion
// order. Each outcome slot is written exactly once by its own goroutine.
func (e *Engine) run(ctx context.Context, prompt string, snapshot []api.ProviderConfig) *api.ComparisonBatch {
	outcomes := make([]Outcome, len(snapshot))

	var wg sync.WaitGroup
	for i, cfg := range snapshot {
		wg.Add(1)
		go func(i int, cfg api.ProviderConfig) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = Outcome{
						Err: api.NewProviderError(fmt.Sprintf("provider dispatch panicked: %v", r)),
					}
				}
			}()
			outcomes[i] = e.invoke(ctx, prompt, cfg)
		}(i, cfg)
	}
	wg.Wait()

	batch := &api.ComparisonBatch{
		ID:        api.NewCompareID(),
		Responses: make([]api.ResponseEnvelope, len(snapshot)),
	}
	for i, cfg := range snapshot {
		batch.Responses[i] = Normalize(cfg, outcomes[i], e.cfg.Scoring)
	}
	return batch
}

// invoke runs a single adapter attempt. The per-provider timeout is
// applied here, on this adapter's context only.
func (e *Engine) invoke(ctx context.Context, prompt string, cfg api.ProviderConfig) Outcome {
	prov, err := e.builder.Build(cfg)
	if err != nil {
		return Outcome{Err: api.NewProviderError(err.Error())}
	}
	defer prov.Close()

	out := Outcome{Model: prov.Model(), Vendor: prov.Vendor()}

	if e.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ProviderTimeout)
		defer cancel()
	}

	callStart := time.Now()
	gen, err := prov.Generate(ctx, prompt)
	elapsed := time.Since(callStart)

	observability.ProviderLatency.WithLabelValues(out.Vendor, out.Model).Observe(elapsed.Seconds())

	if err != nil {
		observability.ProviderRequestsTotal.WithLabelValues(out.Vendor, out.Model, "error").Inc()
		debug.Log("compare", "provider failed",
			"provider", out.Vendor, "config", cfg.ID, "error", err.Error())
		out.Err = err
		return out
	}

	observability.ProviderRequestsTotal.WithLabelValues(out.Vendor, out.Model, "success").Inc()
	if gen.Usage.PromptTokens > 0 {
		observability.ProviderTokensTotal.WithLabelValues(out.Vendor, out.Model, "input").
			Add(float64(gen.Usage.PromptTokens))
	}
	if gen.Usage.CompletionTokens > 0 {
		observability.ProviderTokensTotal.WithLabelValues(out.Vendor, out.Model, "output").
			Add(float64(gen.Usage.CompletionTokens))
	}

	out.Gen = gen
	return out
}

// record emits the completion summary, fire-and-forget.
func (e *Engine) record(ctx context.Context, batch *api.ComparisonBatch, prompt string, snapshot []api.ProviderConfig, elapsed time.Duration) {
	if e.recorder == nil {
		return
	}

	rec := api.CompletionRecord{
		RequestID: batch.ID,
		UserID:    auth.SubjectFromContext(ctx),
		Prompt:    prompt,
		ElapsedMs: elapsed.Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}
	for i, cfg := range snapshot {
		rec.ProvidersAttempted = append(rec.ProvidersAttempted, cfg.ID)
		if batch.Responses[i].Status == api.StatusSuccess {
			rec.ProvidersSucceeded = append(rec.ProvidersSucceeded, cfg.ID)
		}
	}

	e.recorder.Record(rec)
}

// filterByModel narrows the snapshot to configs whose ID or display name
// matches the requested model (display name case-insensitively).
func filterByModel(snapshot []api.ProviderConfig, model string) []api.ProviderConfig {
	var out []api.ProviderConfig
	for _, cfg := range snapshot {
		if cfg.ID == model || strings.EqualFold(cfg.DisplayName, model) {
			out = append(out, cfg)
		}
	}
	return out
}
