package deepseek

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/prompt-arena/arena/pkg/api"
)

// MapHTTPError converts a non-2xx HTTP response into a ProviderError.
// It attempts to parse the body as a ChatErrorResponse to extract a
// descriptive message, falling back to a generic status description.
func MapHTTPError(resp *http.Response) *api.APIError {
	message := ExtractErrorMessage(resp.Body)
	if message == "" {
		message = fmt.Sprintf("backend returned HTTP %d", resp.StatusCode)
	}
	return api.NewProviderError(message)
}

// MapNetworkError converts a network-level failure (connection refused,
// timeout, DNS resolution) into a ProviderError.
func MapNetworkError(err error) *api.APIError {
	return api.NewProviderError(fmt.Sprintf("backend connection error: %s", err.Error()))
}

// ExtractErrorMessage tries to parse the response body as a
// ChatErrorResponse and returns the error message if found.
func ExtractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp ChatErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	return ""
}
