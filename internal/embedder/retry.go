package embedder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig configures exponential backoff retry behavior
type RetryConfig struct {
	MaxRetries int           // Maximum number of attempts
	BaseDelay  time.Duration // Delay before the second attempt
	MaxDelay   time.Duration // Upper bound for any single wait
	Multiplier float64       // Exponential backoff multiplier
	Jitter     float64       // Fraction of each wait randomized, in [0, 1]
}

// Retry defaults
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 100 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second
	DefaultMultiplier = 2.0
	DefaultJitter     = 0.2
)

// DefaultRetryConfig returns the retry policy used by the remote providers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		Multiplier: DefaultMultiplier,
		Jitter:     DefaultJitter,
	}
}

// StatusError is a non-200 answer from an embeddings endpoint.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration // zero when the server sent no hint
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Body)
}

// Retryable reports whether a later attempt may succeed: timeouts, rate
// limits and server errors. Other client errors (bad key, bad request)
// will not change on retry.
func (e *StatusError) Retryable() bool {
	switch {
	case e.Code == http.StatusRequestTimeout, e.Code == http.StatusTooManyRequests:
		return true
	case e.Code >= 500:
		return true
	}
	return false
}

func newStatusError(resp *http.Response, body []byte) *StatusError {
	se := &StatusError{Code: resp.StatusCode, Body: string(body)}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		se.RetryAfter = time.Duration(secs) * time.Second
	}
	return se
}

// isRetryable treats transport failures as transient and defers to
// StatusError for HTTP answers.
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// wait returns the pause before the next attempt: the server's Retry-After
// when given, else backoff with jitter, never above MaxDelay.
func (c RetryConfig) wait(backoff time.Duration, err error) time.Duration {
	d := backoff
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		d = se.RetryAfter
	} else if c.Jitter > 0 {
		spread := float64(d) * c.Jitter
		d = time.Duration(float64(d) - spread + rand.Float64()*2*spread)
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// retryWithBackoff runs fn until it succeeds, fails with a non-retryable
// error, runs out of attempts or ctx ends.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	backoff := config.BaseDelay

	attempts := max(config.MaxRetries, 1)
	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !isRetryable(err) {
			return zero, err
		}
		if attempt == attempts {
			return zero, fmt.Errorf("giving up after %d attempts: %w", attempts, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(config.wait(backoff, err)):
		}
		backoff = time.Duration(float64(backoff) * config.Multiplier)
	}
}
