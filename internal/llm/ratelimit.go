package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"pasassistant/internal/port"
)

// RateLimitedCompleter spaces calls to the wrapped completer so that no more
// than requestsPerMinute requests start in any minute.
type RateLimitedCompleter struct {
	next    port.Completer
	limiter *rate.Limiter
}

var _ port.Completer = (*RateLimitedCompleter)(nil)

// NewRateLimitedCompleter wraps next with a token bucket of burst 1.
func NewRateLimitedCompleter(next port.Completer, requestsPerMinute int) *RateLimitedCompleter {
	return &RateLimitedCompleter{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

func (r *RateLimitedCompleter) Model() string { return r.next.Model() }

func (r *RateLimitedCompleter) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "llm: rate limiter wait")
	}
	return r.next.Complete(ctx, req)
}
