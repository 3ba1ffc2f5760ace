package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2ux/concept-rag-sub002/internal/config"
)

func testProfile() config.ResilienceProfile {
	return config.ResilienceProfile{
		BulkheadMaxConcurrent:   2,
		BulkheadQueueSize:       2,
		BreakerFailureThreshold: 2,
		BreakerCooldown:         20 * time.Millisecond,
		BreakerSuccessThreshold: 1,
		Timeout:                 50 * time.Millisecond,
		RetryMaxAttempts:        2,
		RetryBaseDelay:          time.Millisecond,
	}
}

func TestEnvelopeRetriesThenSucceeds(t *testing.T) {
	e := NewEnvelope("test", testProfile(), nil)

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestEnvelopeTimesOutSlowCalls(t *testing.T) {
	e := NewEnvelope("test", testProfile(), nil)

	err := e.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.Error(t, err)
}

func TestDegradeFallsBackOnFailure(t *testing.T) {
	e := NewEnvelope("test", testProfile(), nil)

	result, err := Degrade(context.Background(), e,
		func(ctx context.Context) (string, error) { return "", errors.New("primary down") },
		func(ctx context.Context) (string, error) { return "fallback", nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "fallback", result)
}
