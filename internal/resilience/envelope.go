// Package resilience implements the bulkhead, circuit breaker, timeout,
// and retry envelope that wraps every outbound call to an LLM, embedding
// provider, or the on-disk stores, plus a graceful-degradation wrapper for
// callers that can fall back to a cached or partial answer instead of
// failing outright.
//
// The bulkhead is built on golang.org/x/sync/semaphore. The Envelope logs
// through an injected *slog.Logger
// rather than the global slog default, so callers can attribute resilience
// events to the collaborator they belong to; the bulkhead, breaker and
// retry loop do not log on their own.
package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/m2ux/concept-rag-sub002/internal/config"
)

// Envelope composes bulkhead, circuit breaker, timeout, and retry around
// calls to one external collaborator (an LLM, an embedding provider, a
// store). Construct one per ResilienceProfile and reuse it.
type Envelope struct {
	name      string
	bulkhead  *Bulkhead
	breaker   *CircuitBreaker
	timeout   time.Duration
	retryCfg  RetryConfig
	log       *slog.Logger
}

// NewEnvelope builds an Envelope from a config.ResilienceProfile. log may
// be nil, in which case events are discarded.
func NewEnvelope(name string, p config.ResilienceProfile, log *slog.Logger) *Envelope {
	if log == nil {
		log = slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}
	return &Envelope{
		name:     name,
		bulkhead: NewBulkhead(name, p.BulkheadMaxConcurrent, p.BulkheadQueueSize),
		breaker: NewCircuitBreaker(name,
			WithMaxFailures(p.BreakerFailureThreshold),
			WithResetTimeout(p.BreakerCooldown),
			WithSuccessThreshold(p.BreakerSuccessThreshold),
		),
		timeout: p.Timeout,
		retryCfg: RetryConfig{
			MaxRetries:   p.RetryMaxAttempts,
			InitialDelay: p.RetryBaseDelay,
			MaxDelay:     p.Timeout,
			Multiplier:   2.0,
			Jitter:       true,
		},
		log: log,
	}
}

// Execute runs fn through bulkhead -> circuit breaker -> timeout -> retry,
// in that order: the bulkhead gates overall concurrency first, the breaker
// fails fast without consuming a retry budget, and only a call that is
// actually dispatched gets a deadline and backoff-retried.
func (e *Envelope) Execute(ctx context.Context, fn func(context.Context) error) error {
	return e.bulkhead.Execute(ctx, func() error {
		return Retry(ctx, e.retryCfg, func() error {
			return e.breaker.Execute(func() error {
				err := WithTimeout(ctx, e.timeout, fn)
				if err != nil {
					e.log.Warn("resilience call failed",
						slog.String("collaborator", e.name),
						slog.String("breaker_state", e.breaker.State().String()),
						slog.String("error", err.Error()))
				}
				return err
			})
		})
	})
}

// State returns the circuit breaker's current state, for status reporting.
func (e *Envelope) State() State { return e.breaker.State() }

// Degrade runs primary through the envelope, falling back to fallback if
// primary fails for any reason. fallback errors propagate unwrapped.
func Degrade[T any](ctx context.Context, e *Envelope, primary func(context.Context) (T, error), fallback func(context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = primary(ctx)
		return innerErr
	})
	if err == nil {
		return result, nil
	}
	if e.log != nil {
		e.log.Warn("degrading to fallback", slog.String("collaborator", e.name), slog.String("error", err.Error()))
	}
	return fallback(ctx)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
