package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasassistant/internal/config"
	"pasassistant/internal/llm"
	"pasassistant/internal/llm/gemini"
	"pasassistant/internal/port"
)

func newTestCompleter(serverURL string) *gemini.Completer {
	return gemini.NewCompleter(&config.LLMProviderConfig{
		Provider:    "gemini",
		APIKey:      "test-api-key",
		BaseURL:     serverURL,
		Model:       "gemini-2.0-flash",
		MaxTokens:   8192,
		Temperature: 0.3,
	})
}

func candidates(finishReason string, texts ...string) map[string]interface{} {
	parts := make([]map[string]interface{}, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, map[string]interface{}{"text": text})
	}
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": parts}, "finishReason": finishReason},
		},
	}
}

func TestGeminiCompleter_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "/gemini-2.0-flash:generateContent", r.URL.Path)

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		system := reqBody["systemInstruction"].(map[string]interface{})
		assert.Equal(t, "system prompt", system["parts"].([]interface{})[0].(map[string]interface{})["text"])

		contents := reqBody["contents"].([]interface{})
		require.Len(t, contents, 1)
		user := contents[0].(map[string]interface{})
		assert.Equal(t, "user", user["role"])
		assert.Len(t, user["parts"], 2)

		genCfg := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, float64(8192), genCfg["maxOutputTokens"])
		assert.InDelta(t, 0.3, genCfg["temperature"], 1e-9)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(candidates("STOP", `{"answers":`, `[]}`))
	}))
	defer server.Close()

	out, err := newTestCompleter(server.URL).Complete(context.Background(), port.CompletionRequest{
		System: "system prompt",
		User:   []string{"bloc un", "bloc deux"},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"answers":[]}`, out)
}

func TestGeminiCompleter_Complete_RequestOverrides(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Nil(t, reqBody["systemInstruction"])
		genCfg := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, float64(4000), genCfg["maxOutputTokens"])
		assert.InDelta(t, 0.2, genCfg["temperature"], 1e-9)

		_ = json.NewEncoder(w).Encode(candidates("STOP", "ok"))
	}))
	defer server.Close()

	temp := 0.2
	out, err := newTestCompleter(server.URL).Complete(context.Background(), port.CompletionRequest{
		User:        []string{"x"},
		MaxTokens:   4000,
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestGeminiCompleter_Complete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "20")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), port.CompletionRequest{User: []string{"x"}})

	var rlErr *llm.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, gemini.ProviderName, rlErr.Provider)
	assert.Equal(t, 20*time.Second, rlErr.RetryAfter)
}

func TestGeminiCompleter_Complete_Errors(t *testing.T) {
	cases := map[string]struct {
		status  int
		body    interface{}
		wantErr string
	}{
		"api error":     {http.StatusBadRequest, map[string]string{"error": "bad"}, "status 400"},
		"no candidates": {http.StatusOK, map[string]interface{}{"candidates": []interface{}{}}, "no candidates"},
		"truncated":     {http.StatusOK, candidates("MAX_TOKENS", "partial"), "output truncated"},
		"empty text":    {http.StatusOK, candidates("STOP"), "empty response"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			defer server.Close()

			_, err := newTestCompleter(server.URL).Complete(context.Background(), port.CompletionRequest{User: []string{"x"}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestGeminiCompleter_Defaults(t *testing.T) {
	c := gemini.NewCompleter(&config.LLMProviderConfig{APIKey: "k"})
	assert.Equal(t, "gemini-2.0-flash", c.Model())
}

func TestGeminiCompleter_Registry(t *testing.T) {
	_, err := llm.NewCompleter(&config.LLMProviderConfig{Provider: gemini.ProviderName})
	assert.Error(t, err)

	c, err := llm.NewCompleter(&config.LLMProviderConfig{Provider: gemini.ProviderName, APIKey: "k", Model: "gemini-2.5-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", c.Model())
}
