package observability

import (
	"net/http"
	"strconv"
	"time"
)

// MetricsMiddleware wraps an HTTP handler to record request metrics.
//
// It captures:
//   - arena_requests_total (counter): per request with method, path, and status class labels
//   - arena_request_duration_seconds (histogram): request duration with method and path labels
//
// The path label uses the raw URL path. The route surface is small and
// fixed (no per-resource path parameters except admin config IDs), so
// cardinality stays bounded; config IDs are collapsed.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		path := collapsePath(r.URL.Path)

		// Build a status class label like "2xx", "4xx", "5xx".
		statusStr := strconv.Itoa(sw.status/100) + "xx"

		RequestsTotal.WithLabelValues(r.Method, path, statusStr).Inc()
		RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// collapsePath replaces per-resource suffixes with a placeholder to keep
// label cardinality bounded.
func collapsePath(p string) string {
	const adminConfigs = "/v1/admin/configs/"
	if len(p) > len(adminConfigs) && p[:len(adminConfigs)] == adminConfigs {
		return adminConfigs + "{id}"
	}
	return p
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter, enabling
// http.ResponseController and similar utilities to access it.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
