// Package claude provides a completion provider backed by the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"pasassistant/internal/config"
	"pasassistant/internal/llm"
	"pasassistant/internal/port"
)

const (
	// ProviderName is the registry key of this provider.
	ProviderName = "claude"

	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 16000
)

func init() {
	llm.RegisterProvider(ProviderName, func(cfg *config.LLMProviderConfig) (port.Completer, error) {
		return NewCompleter(cfg), nil
	})
}

// Completer implements port.Completer using the Anthropic SDK.
type Completer struct {
	client      sdk.Client
	model       string
	maxTokens   int
	temperature float64
}

var _ port.Completer = (*Completer)(nil)

// NewCompleter creates a Claude completer from a provider config. Extra request
// options are appended after the ones derived from cfg.
func NewCompleter(cfg *config.LLMProviderConfig, opts ...option.RequestOption) *Completer {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
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
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

func (c *Completer) Model() string { return c.model }

// Complete sends one user message made of the request's text blocks.
func (c *Completer) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	blocks := make([]sdk.ContentBlockParamUnion, 0, len(req.User))
	for _, text := range req.User {
		blocks = append(blocks, sdk.NewTextBlock(text))
	}
	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(blocks...)},
		Temperature: sdk.Float(temperature),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := 0
			if apiErr.Response != nil {
				retryAfter = llm.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
			}
			return "", llm.NewRateLimitError(ProviderName, err, retryAfter)
		}
		return "", eris.Wrap(err, "claude: create message")
	}

	if string(msg.StopReason) == "max_tokens" {
		return "", eris.New("claude: output truncated (stop_reason: max_tokens): response exceeded output token limit")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", eris.Errorf("claude: empty response from model %s", c.model)
	}
	return b.String(), nil
}
