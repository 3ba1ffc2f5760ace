package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(3))

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return errors.New("boom") })
		require.Error(t, err)
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreakerHalfOpenRequiresConsecutiveSuccesses(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1), WithResetTimeout(10*time.Millisecond), WithSuccessThreshold(2))

	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State(), "one success must not close the circuit")

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State(), "two consecutive successes should close it")
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1), WithResetTimeout(10*time.Millisecond), WithSuccessThreshold(2))

	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	time.Sleep(15 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Error(t, cb.Execute(func() error { return errors.New("boom again") }))

	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerRecordSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(3))
	cb.RecordFailure()
	cb.RecordFailure()
	require.Equal(t, 2, cb.Failures())

	cb.RecordSuccess()
	assert.Equal(t, 0, cb.Failures())
}
