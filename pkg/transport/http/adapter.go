// Package http serves the arena API over HTTP.
//
// The Adapter owns the route table and request/response serialization;
// cross-cutting behavior (recovery, request IDs, logging) comes in as
// transport middleware around the Comparer, and HTTP-level concerns
// (auth, metrics) are layered on by the caller.
package http

import (
	"context"
	"net/http"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/auth"
	"github.com/prompt-arena/arena/pkg/auth/token"
	"github.com/prompt-arena/arena/pkg/storage"
	"github.com/prompt-arena/arena/pkg/transport"
)

// Summarizer computes the admin analytics payload.
type Summarizer interface {
	Summary(ctx context.Context) (*api.AnalyticsSummary, error)
}

// Adapter serves the arena API over HTTP.
// It routes requests to the appropriate handler and serializes responses.
type Adapter struct {
	comparer   transport.Comparer
	store      storage.Store
	tokens     *token.Service // nil when auth.mode != "token"
	summarizer Summarizer
	mux        *http.ServeMux
	config     Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr        string
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		MaxBodySize: 2 << 20, // 2 MB
	}
}

// NewAdapter creates an HTTP adapter. The token service is optional; when
// nil, the login and signup endpoints report that account auth is not
// available. Middleware is applied to the Comparer in the given order.
func NewAdapter(comparer transport.Comparer, store storage.Store, tokens *token.Service, summarizer Summarizer, cfg Config, middlewares ...transport.Middleware) *Adapter {
	// Apply middleware chain to the comparer.
	if len(middlewares) > 0 {
		comparer = transport.Chain(middlewares...)(comparer)
	}

	a := &Adapter{
		comparer:   comparer,
		store:      store,
		tokens:     tokens,
		summarizer: summarizer,
		mux:        http.NewServeMux(),
		config:     cfg,
	}

	a.mux.HandleFunc("POST /v1/compare", a.handleCompare)

	a.mux.HandleFunc("POST /v1/auth/signup", a.handleSignup)
	a.mux.HandleFunc("POST /v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("POST /v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("GET /v1/auth/me", a.handleMe)

	a.mux.Handle("GET /v1/admin/configs", auth.RequireAdmin(http.HandlerFunc(a.handleListConfigs)))
	a.mux.Handle("POST /v1/admin/configs", auth.RequireAdmin(http.HandlerFunc(a.handleCreateConfig)))
	a.mux.Handle("PATCH /v1/admin/configs/{id}", auth.RequireAdmin(http.HandlerFunc(a.handleUpdateConfig)))
	a.mux.Handle("DELETE /v1/admin/configs/{id}", auth.RequireAdmin(http.HandlerFunc(a.handleDeleteConfig)))
	a.mux.Handle("GET /v1/admin/analytics", auth.RequireAdmin(http.HandlerFunc(a.handleAnalytics)))

	a.mux.HandleFunc("POST /v1/transcribe", a.handleTranscribe)
	a.mux.HandleFunc("POST /v1/speech", a.handleSpeech)

	a.mux.HandleFunc("GET /healthz", a.handleHealthz)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// httpRequestIDMiddleware is HTTP-level middleware that propagates the
// X-Request-ID header. If present in the request, it is forwarded to
// the response. After the handler runs, it checks the context for a
// request ID (set by the transport-level RequestID middleware) and adds
// it to the response headers if not already set.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If client sent X-Request-ID, propagate it into context.
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx := transport.ContextWithRequestID(r.Context(), id)
			r = r.WithContext(ctx)
		}
		// Use a response writer wrapper to capture and set the request ID
		// header before the first write.
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set("X-Request-ID", id)
	}
}
