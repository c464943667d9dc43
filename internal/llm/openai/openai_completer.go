// Package openai provides a completion provider backed by the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rotisserie/eris"

	"pasassistant/internal/config"
	"pasassistant/internal/llm"
	"pasassistant/internal/port"
)

const (
	// ProviderName is the registry key of this provider.
	ProviderName = "openai"

	defaultModel = "gpt-4o"
)

func init() {
	llm.RegisterProvider(ProviderName, func(cfg *config.LLMProviderConfig) (port.Completer, error) {
		if cfg.APIKey == "" {
			return nil, eris.New("openai api key missing; set llm api_key")
		}
		return NewCompleter(cfg), nil
	})
}

// Completer implements port.Completer using the openai-go SDK.
type Completer struct {
	client      sdk.Client
	model       string
	maxTokens   int
	temperature float64
}

var _ port.Completer = (*Completer)(nil)

// NewCompleter creates an OpenAI completer from a provider config. Extra
// request options are appended after the ones derived from cfg.
func NewCompleter(cfg *config.LLMProviderConfig, opts ...option.RequestOption) *Completer {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSecs > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(time.Duration(cfg.TimeoutSecs)*time.Second))
	}
	reqOpts = append(reqOpts, opts...)

	return &Completer{
		client:      sdk.NewClient(reqOpts...),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (c *Completer) Model() string { return c.model }

// Complete sends the system prompt and the user blocks joined into one message.
func (c *Completer) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	var msgs []sdk.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, sdk.SystemMessage(req.System))
	}
	msgs = append(msgs, sdk.UserMessage(strings.Join(req.User, "\n\n")))

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.model),
		Messages: msgs,
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(maxTokens))
	}
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	params.Temperature = sdk.Float(temperature)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := 0
			if apiErr.Response != nil {
				retryAfter = llm.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
			}
			return "", llm.NewRateLimitError(ProviderName, err, retryAfter)
		}
		return "", eris.Wrap(err, "openai: create chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("openai: empty choices")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		return "", eris.New("openai: output truncated (finish_reason: length): response exceeded output token limit")
	}
	return choice.Message.Content, nil
}
