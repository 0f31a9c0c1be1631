// Package transport defines the handler contract between the HTTP layer
// and the comparison engine, together with handler-level middleware
// (panic recovery, request IDs, structured logging) and the mapping from
// API errors to HTTP status codes.
package transport
