package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/transport"
)

// handleCompare handles POST /v1/compare.
//
// Provider failures never surface here as HTTP errors: the comparer folds
// them into error envelopes, so the response is 200 even when every
// provider failed.
func (a *Adapter) handleCompare(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[api.CompareRequest](a, w, r)
	if !ok {
		return
	}

	resp, err := a.comparer.Compare(r.Context(), req)
	if err != nil {
		transport.WriteAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// decodeJSON validates the Content-Type, bounds the body, and decodes it
// into T. On failure it writes the error response and returns ok=false.
func decodeJSON[T any](a *Adapter, w http.ResponseWriter, r *http.Request) (*T, bool) {
	// Validate Content-Type.
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return nil, false
	}

	// Limit body size.
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return nil, false
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return nil, false
	}

	return &req, true
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
