package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasassistant/internal/config"
	"pasassistant/internal/llm"
	"pasassistant/internal/llm/openai"
	"pasassistant/internal/port"
)

func newTestCompleter(serverURL string) *openai.Completer {
	cfg := &config.LLMProviderConfig{
		Provider:    "openai",
		APIKey:      "test-api-key",
		BaseURL:     serverURL,
		Model:       "gpt-4o",
		MaxTokens:   4096,
		Temperature: 0.3,
	}
	return openai.NewCompleter(cfg, option.WithMaxRetries(0))
}

func chatResponse(content, finishReason string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": finishReason,
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			},
		},
	}
}

func TestOpenAICompleter_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o", reqBody["model"])
		assert.Equal(t, float64(4096), reqBody["max_completion_tokens"])
		assert.InDelta(t, 0.3, reqBody["temperature"], 1e-9)

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
		assert.Equal(t, "system prompt", messages[0].(map[string]interface{})["content"])
		assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
		assert.Equal(t, "bloc un\n\nbloc deux", messages[1].(map[string]interface{})["content"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"attention_points":[]}`, "stop"))
	}))
	defer server.Close()

	c := newTestCompleter(server.URL)
	out, err := c.Complete(context.Background(), port.CompletionRequest{
		System: "system prompt",
		User:   []string{"bloc un", "bloc deux"},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"attention_points":[]}`, out)
	assert.Equal(t, "gpt-4o", c.Model())
}

func TestOpenAICompleter_Complete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), port.CompletionRequest{User: []string{"x"}})

	require.Error(t, err)
	var rlErr *llm.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "openai", rlErr.Provider)
	assert.Equal(t, 12*time.Second, rlErr.RetryAfter)
}

func TestOpenAICompleter_Complete_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"responses":[`, "length"))
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), port.CompletionRequest{User: []string{"x"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "finish_reason: length")
}

func TestOpenAICompleter_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse("", "stop")
		resp["choices"] = []map[string]interface{}{}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), port.CompletionRequest{User: []string{"x"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}

func TestOpenAICompleter_RegistryRequiresAPIKey(t *testing.T) {
	_, err := llm.NewCompleter(&config.LLMProviderConfig{Provider: openai.ProviderName})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key missing")

	c, err := llm.NewCompleter(&config.LLMProviderConfig{Provider: openai.ProviderName, APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.Model())
}
