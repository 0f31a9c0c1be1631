package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prompt-arena/arena/pkg/api"
)

func TestCompare_FanOut(t *testing.T) {
	resp := doJSON(t, http.MethodPost, testEnv.BaseURL()+"/v1/compare", userKey,
		map[string]string{"prompt": "What is the capital of France?"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var result api.CompareResponse
	decodeJSON(t, resp, &result)

	if !strings.HasPrefix(result.ID, "cmp_") {
		t.Errorf("expected cmp_ comparison ID, got %q", result.ID)
	}
	if len(result.Responses) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(result.Responses))
	}

	// Envelope order is the config snapshot order, not completion order.
	gemini, deepseek := result.Responses[0], result.Responses[1]

	if gemini.ID != geminiConfigID {
		t.Errorf("expected first envelope for %s, got %s", geminiConfigID, gemini.ID)
	}
	if gemini.Status != api.StatusSuccess {
		t.Errorf("expected gemini success, got %s (%s)", gemini.Status, gemini.Error)
	}
	if gemini.Content != mockGeminiReply {
		t.Errorf("unexpected gemini content: %q", gemini.Content)
	}
	if gemini.Model != "Gemini Mock" || gemini.Provider != "Google" {
		t.Errorf("unexpected gemini labels: model=%q provider=%q", gemini.Model, gemini.Provider)
	}
	if gemini.Score == nil || *gemini.Score != 0.92 {
		t.Errorf("expected gemini score 0.92, got %v", gemini.Score)
	}
	if gemini.Usage == nil || gemini.Usage.TotalTokens != 20 {
		t.Errorf("expected gemini usage total 20, got %+v", gemini.Usage)
	}
	if len(gemini.Highlights) == 0 {
		t.Error("expected gemini highlights")
	}

	if deepseek.ID != deepseekConfigID {
		t.Errorf("expected second envelope for %s, got %s", deepseekConfigID, deepseek.ID)
	}
	if deepseek.Status != api.StatusSuccess {
		t.Errorf("expected deepseek success, got %s (%s)", deepseek.Status, deepseek.Error)
	}
	if deepseek.Content != mockDeepSeekReply {
		t.Errorf("unexpected deepseek content: %q", deepseek.Content)
	}
	if deepseek.Score == nil || *deepseek.Score != 0.88 {
		t.Errorf("expected deepseek score 0.88, got %v", deepseek.Score)
	}
	if deepseek.Usage == nil || deepseek.Usage.TotalTokens != 16 {
		t.Errorf("expected deepseek usage total 16, got %+v", deepseek.Usage)
	}
}

func TestCompare_PartialFailure(t *testing.T) {
	resp := doJSON(t, http.MethodPost, testEnv.BaseURL()+"/v1/compare", userKey,
		map[string]string{"prompt": "trigger a deepseek-outage please"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 despite provider failure, got %d", resp.StatusCode)
	}

	var result api.CompareResponse
	decodeJSON(t, resp, &result)

	if len(result.Responses) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(result.Responses))
	}

	gemini, deepseek := result.Responses[0], result.Responses[1]
	if gemini.Status != api.StatusSuccess {
		t.Errorf("expected gemini success, got %s", gemini.Status)
	}
	if deepseek.Status != api.StatusError {
		t.Fatalf("expected deepseek error envelope, got %s", deepseek.Status)
	}
	if deepseek.Content != "" {
		t.Errorf("error envelope must have empty content, got %q", deepseek.Content)
	}
	if !strings.Contains(deepseek.Error, "unavailable") {
		t.Errorf("expected backend error message, got %q", deepseek.Error)
	}
	if deepseek.Score == nil || *deepseek.Score != 0 {
		t.Errorf("expected zero score on error, got %v", deepseek.Score)
	}
}

func TestCompare_TotalFailure(t *testing.T) {
	resp := doJSON(t, http.MethodPost, testEnv.BaseURL()+"/v1/compare", userKey,
		map[string]string{"prompt": "gemini-outage and deepseek-outage together"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 despite total provider failure, got %d", resp.StatusCode)
	}

	var result api.CompareResponse
	decodeJSON(t, resp, &result)

	for _, env := range result.Responses {
		if env.Status != api.StatusError {
			t.Errorf("expected error envelope for %s, got %s", env.ID, env.Status)
		}
	}
}

func TestCompare_ModelFilter(t *testing.T) {
	resp := doJSON(t, http.MethodPost, testEnv.BaseURL()+"/v1/compare", userKey,
		map[string]string{"prompt": "filtered question", "model": geminiConfigID})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result api.CompareResponse
	decodeJSON(t, resp, &result)

	if len(result.Responses) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(result.Responses))
	}
	if result.Responses[0].ID != geminiConfigID {
		t.Errorf("expected %s, got %s", geminiConfigID, result.Responses[0].ID)
	}
}

func TestCompare_ModelFilterByDisplayName(t *testing.T) {
	resp := doJSON(t, http.MethodPost, testEnv.BaseURL()+"/v1/compare", userKey,
		map[string]string{"prompt": "filtered question", "model": "deepseek mock"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result api.CompareResponse
	decodeJSON(t, resp, &result)

	if len(result.Responses) != 1 || result.Responses[0].ID != deepseekConfigID {
		t.Fatalf("expected only %s, got %+v", deepseekConfigID, result.Responses)
	}
}

func TestCompare_UnknownModelFilter(t *testing.T) {
	resp := doJSON(t, http.MethodPost, testEnv.BaseURL()+"/v1/compare", userKey,
		map[string]string{"prompt": "hello", "model": "no-such-model"})

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("expected invalid_request, got %s", errResp.Error.Type)
	}
	if errResp.Error.Param != "model" {
		t.Errorf("expected param model, got %q", errResp.Error.Param)
	}
}

func TestCompare_RequestIDEcho(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, testEnv.BaseURL()+"/v1/compare",
		strings.NewReader(`{"prompt":"traced request"}`))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+userKey)
	req.Header.Set("X-Request-ID", "req-integration-42")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /v1/compare: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "req-integration-42" {
		t.Errorf("expected X-Request-ID echoed, got %q", got)
	}
}
