package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasassistant/internal/config"
	"pasassistant/internal/llm"
	"pasassistant/internal/port"
)

type stubCompleter struct {
	model string
	reply string
}

func (s *stubCompleter) Complete(context.Context, port.CompletionRequest) (string, error) {
	return s.reply, nil
}

func (s *stubCompleter) Model() string { return s.model }

func registerStub(name, reply string) {
	llm.RegisterProvider(name, func(cfg *config.LLMProviderConfig) (port.Completer, error) {
		return &stubCompleter{model: cfg.Model, reply: reply}, nil
	})
}

func TestFactory_RegisterAndCreate(t *testing.T) {
	registerStub("test-provider", "ok")

	c, err := llm.NewCompleter(&config.LLMProviderConfig{Provider: "test-provider", Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, "test-model", c.Model())

	out, err := c.Complete(context.Background(), port.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestFactory_UnknownProvider(t *testing.T) {
	_, err := llm.NewCompleter(&config.LLMProviderConfig{Provider: "nonexistent"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestFactory_RateLimitedWhenConfigured(t *testing.T) {
	registerStub("test-limited", "ok")

	c, err := llm.NewCompleter(&config.LLMProviderConfig{Provider: "test-limited", Model: "m", RequestsPerMinute: 600})
	require.NoError(t, err)
	assert.IsType(t, &llm.RateLimitedCompleter{}, c)
	assert.Equal(t, "m", c.Model())
}

func TestNewFromConfig(t *testing.T) {
	registerStub("test-primary", "primary")
	registerStub("test-secondary", "secondary")

	t.Run("primary only", func(t *testing.T) {
		c, err := llm.NewFromConfig(&config.LLMConfig{
			Primary: config.LLMProviderConfig{Provider: "test-primary", Model: "p"},
		})
		require.NoError(t, err)
		assert.IsType(t, &stubCompleter{}, c)
	})

	t.Run("with secondary", func(t *testing.T) {
		c, err := llm.NewFromConfig(&config.LLMConfig{
			Primary:   config.LLMProviderConfig{Provider: "test-primary", Model: "p"},
			Secondary: config.LLMProviderConfig{Provider: "test-secondary", Model: "s"},
		})
		require.NoError(t, err)
		assert.IsType(t, &llm.FallbackCompleter{}, c)
		assert.Equal(t, "p", c.Model())

		out, err := c.Complete(context.Background(), port.CompletionRequest{})
		require.NoError(t, err)
		assert.Equal(t, "primary", out)
	})

	t.Run("unknown secondary", func(t *testing.T) {
		_, err := llm.NewFromConfig(&config.LLMConfig{
			Primary:   config.LLMProviderConfig{Provider: "test-primary"},
			Secondary: config.LLMProviderConfig{Provider: "nonexistent"},
		})
		assert.Error(t, err)
	})
}
