// Package gemini provides a completion provider backed by the Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"pasassistant/internal/config"
	"pasassistant/internal/llm"
	"pasassistant/internal/port"
)

const (
	// ProviderName is the registry key of this provider.
	ProviderName = "gemini"

	apiBaseURL       = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel     = "gemini-2.0-flash"
	defaultMaxTokens = 16384
	defaultTimeout   = 300 * time.Second
)

func init() {
	llm.RegisterProvider(ProviderName, func(cfg *config.LLMProviderConfig) (port.Completer, error) {
		if cfg.APIKey == "" {
			return nil, eris.New("gemini: api key is required")
		}
		return NewCompleter(cfg), nil
	})
}

// Completer implements port.Completer over plain HTTP.
type Completer struct {
	apiKey      string
	model       string
	endpoint    string
	maxTokens   int
	temperature float64
	client      *http.Client
}

var _ port.Completer = (*Completer)(nil)

// NewCompleter creates a Gemini completer. cfg.BaseURL replaces the public
// models endpoint, which lets tests point it at a local server.
func NewCompleter(cfg *config.LLMProviderConfig) *Completer {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = apiBaseURL
	}
	return &Completer{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    fmt.Sprintf("%s/%s:generateContent", base, model),
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

func (c *Completer) Model() string { return c.model }

type textPart struct {
	Text string `json:"text"`
}

type content struct {
	Role  string     `json:"role,omitempty"`
	Parts []textPart `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

// generateResponse models the parts of the API response that are read.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []textPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Complete sends one user turn holding one part per request text block.
func (c *Completer) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	parts := make([]textPart, 0, len(req.User))
	for _, text := range req.User {
		parts = append(parts, textPart{Text: text})
	}
	body := generateRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{MaxOutputTokens: maxTokens, Temperature: temperature},
	}
	if req.System != "" {
		body.SystemInstruction = &content{Parts: []textPart{{Text: req.System}}}
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", eris.Wrap(err, "gemini: marshal request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "gemini: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", eris.Wrap(err, "gemini: call API")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "gemini: read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return "", llm.NewRateLimitError(ProviderName,
			eris.Errorf("gemini API rate limited: %s", llm.Truncate(string(respBody), 200)), retryAfter)
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("gemini: API error (status %d): %s", resp.StatusCode, llm.Truncate(string(respBody), 500))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", eris.Wrap(err, "gemini: unmarshal response")
	}
	if len(parsed.Candidates) == 0 {
		return "", eris.New("gemini: empty response from API: no candidates")
	}
	candidate := parsed.Candidates[0]
	if candidate.FinishReason == "MAX_TOKENS" {
		return "", eris.New("gemini: output truncated (finishReason: MAX_TOKENS): response exceeded output token limit")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", eris.Errorf("gemini: empty response from model %s", c.model)
	}
	return b.String(), nil
}
