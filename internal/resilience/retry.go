package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
)

// RetryConfig configures exponential backoff retry.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryConfig mirrors the LLM resilience profile's retry knobs.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// isRetryable reports whether fn should be retried given err. Validation
// errors are caller mistakes, not transient faults, and a retry can never
// fix them; a circuit-open rejection means the breaker already decided not
// to send traffic, so retrying here would just spin against it.
func isRetryable(err error) bool {
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var domainErr *errs.Error
	if errors.As(err, &domainErr) {
		return domainErr.Retryable
	}
	return true
}

// Retry executes fn with exponential backoff, stopping early on a
// non-retryable error or context cancellation. cfg.MaxRetries caps the
// total number of calls to fn, not the number of retries after a first
// attempt.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}
		if attempt == cfg.MaxRetries-1 {
			break
		}

		waitDelay := delay
		if cfg.Jitter {
			jitterFactor := 0.5 + rand.Float64()*0.5
			waitDelay = time.Duration(float64(delay) * jitterFactor)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitDelay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxRetries, lastErr)
}

// RetryWithResult is Retry for functions that also produce a value.
// cfg.MaxRetries caps the total number of calls to fn, same as Retry.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		var err error
		result, err = fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return result, err
		}
		if attempt == cfg.MaxRetries-1 {
			break
		}

		waitDelay := delay
		if cfg.Jitter {
			jitterFactor := 0.5 + rand.Float64()*0.5
			waitDelay = time.Duration(float64(delay) * jitterFactor)
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(waitDelay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	var zero T
	return zero, fmt.Errorf("failed after %d attempts: %w", cfg.MaxRetries, lastErr)
}
