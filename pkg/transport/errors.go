package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prompt-arena/arena/pkg/api"
)

// HTTPStatusFromError maps an APIError type to the corresponding HTTP
// status code. ProviderError maps to 500 here only as a safety net: the
// engine is expected to fold provider failures into envelopes before
// they ever reach the transport layer.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeUnauthenticated:
		return http.StatusUnauthorized
	case api.ErrorTypeForbidden:
		return http.StatusForbidden
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeConflict:
		return http.StatusConflict
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	case api.ErrorTypeServerError, api.ErrorTypeProviderError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error response using the ErrorResponse
// wrapper format from pkg/api. It sets the Content-Type header and writes
// the HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError writes an error response, deriving the HTTP status code
// from the error type. Non-APIError values become opaque server errors.
func WriteAPIError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		apiErr = api.NewServerError("internal server error")
	}
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}
