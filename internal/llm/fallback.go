package llm

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"pasassistant/internal/port"
)

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackCompleter tries completers in order, skipping those with open circuits.
// It implements port.Completer.
type FallbackCompleter struct {
	completers []port.Completer
	circuits   []*circuitState
	names      []string
}

var _ port.Completer = (*FallbackCompleter)(nil)

// NewFallbackCompleter creates a FallbackCompleter from an ordered list of completers and their names.
func NewFallbackCompleter(completers []port.Completer, names []string) *FallbackCompleter {
	circuits := make([]*circuitState, len(completers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackCompleter{
		completers: completers,
		circuits:   circuits,
		names:      names,
	}
}

// Model reports the primary completer's model.
func (f *FallbackCompleter) Model() string {
	if len(f.completers) == 0 {
		return ""
	}
	return f.completers[0].Model()
}

func (f *FallbackCompleter) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	now := time.Now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, c := range f.completers {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			zap.L().Warn("skipping llm provider, circuit open",
				zap.String("provider", f.names[i]), zap.Time("reset_at", resetAt))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := c.Complete(ctx, req)
		if err == nil {
			return out, nil
		}

		zap.L().Warn("llm provider failed", zap.String("provider", f.names[i]), zap.Error(err))
		lastErr = err

		if retryAfter, limited := RetryAfterOf(err); limited {
			resetAt := now.Add(retryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil || allRateLimited {
		retryAfter := time.Until(earliestReset)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return "", NewRateLimitError(ProviderAll, eris.New("all llm providers rate limited"), int(retryAfter.Seconds()))
	}

	return "", eris.Wrap(lastErr, "all llm providers failed")
}
