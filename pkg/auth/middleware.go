package auth

import (
	"log/slog"
	"net/http"
)

// Middleware creates HTTP middleware from an AuthChain and optional RateLimiter.
// It checks the bypass list, runs authentication, injects the identity into
// the request context, and optionally enforces rate limits.
func Middleware(chain *AuthChain, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check bypass list.
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// Run auth chain.
			result := chain.Authenticate(r.Context(), r)

			if result.Decision == No {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				writeJSONError(w, http.StatusUnauthorized, `{"error":{"type":"unauthenticated","message":"authentication required"}}`)
				return
			}

			if result.Decision != Yes || result.Identity == nil {
				writeJSONError(w, http.StatusUnauthorized, `{"error":{"type":"unauthenticated","message":"authentication required"}}`)
				return
			}

			// Validate identity.
			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				writeJSONError(w, http.StatusInternalServerError, `{"error":{"type":"server_error","message":"internal authentication error"}}`)
				return
			}

			slog.Debug("authentication succeeded",
				"subject", result.Identity.Subject,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			// Rate limiting (if configured).
			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", result.Identity.ServiceTier,
					)
					writeJSONError(w, http.StatusTooManyRequests, `{"error":{"type":"too_many_requests","message":"rate limit exceeded"}}`)
					return
				}
			}

			// Inject identity into context.
			ctx := SetIdentity(r.Context(), result.Identity)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin wraps a handler and rejects callers whose identity does not
// carry the admin role. It assumes Middleware already ran.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if !id.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, `{"error":{"type":"forbidden","message":"admin access required"}}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/readyz", "/metrics", "/v1/auth/login", "/v1/auth/signup"}
