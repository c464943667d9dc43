package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ProviderAll names the aggregate limit reported when every configured
// provider is backing off at once.
const ProviderAll = "all"

// defaultRetryAfter applies when a 429 carries no usable Retry-After.
const defaultRetryAfter = 60 * time.Second

// RateLimitError reports that a completion provider answered 429. RetryAfter
// is how long the fallback chain keeps that provider's circuit open.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("llm: provider %s rate limited, retry in %s: %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError builds the error a completer returns on HTTP 429.
// retryAfterSecs comes from ParseRetryAfterHeader; 0 means one minute.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	retryAfter := time.Duration(retryAfterSecs) * time.Second
	if retryAfter <= 0 {
		retryAfter = defaultRetryAfter
	}
	return &RateLimitError{Err: err, RetryAfter: retryAfter, Provider: provider}
}

// RetryAfterOf reports the backoff carried by a rate limit anywhere in err's chain.
func RetryAfterOf(err error) (time.Duration, bool) {
	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		return 0, false
	}
	return rlErr.RetryAfter, true
}

// ParseRetryAfterHeader converts a Retry-After header into whole seconds.
// Both the delay-seconds and the HTTP-date forms are accepted; anything else,
// or a date already in the past, yields 0.
func ParseRetryAfterHeader(val string) int {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return max(secs, 0)
	}
	at, err := http.ParseTime(val)
	if err != nil {
		return 0
	}
	return max(int(time.Until(at).Round(time.Second).Seconds()), 0)
}

// Truncate bounds provider response bodies quoted in logs and error
// messages to maxLen bytes, cutting on a rune boundary so French text stays
// valid UTF-8.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
