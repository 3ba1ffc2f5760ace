package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2, Jitter: false}

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2, Jitter: false}

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return errors.New("still broken")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts) // MaxRetries caps total attempts, not retries after the first
}

func TestRetryStopsImmediatelyOnValidationError(t *testing.T) {
	cfg := DefaultRetryConfig()
	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return errs.Validation(errs.CodeValidationRequired, "missing field")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryStopsImmediatelyOnCircuitOpen(t *testing.T) {
	cfg := DefaultRetryConfig()
	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return ErrCircuitOpen
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 1, attempts)
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
	err := Retry(ctx, cfg, func() error { return errors.New("x") })
	assert.ErrorIs(t, err, context.Canceled)
}
