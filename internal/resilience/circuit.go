package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by CircuitBreaker.Execute when the circuit is
// open and the call was rejected without running fn.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is one of the three circuit breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker fails fast once a collaborator has shown maxFailures
// consecutive failures, and only resumes sending it traffic after it has
// shown successThreshold consecutive successes from the half-open state.
//
// This differs from a single-success half-open close: one lucky response
// from a still-degraded collaborator should not re-open the floodgates.
type CircuitBreaker struct {
	name              string
	maxFailures       int
	resetTimeout      time.Duration
	successThreshold  int

	mu              sync.RWMutex
	state           State
	failures        int
	halfOpenSuccess int
	lastFailure     time.Time
}

// CircuitBreakerOption configures a CircuitBreaker at construction.
type CircuitBreakerOption func(*CircuitBreaker)

func WithMaxFailures(n int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) { cb.maxFailures = n }
}

func WithResetTimeout(d time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) { cb.resetTimeout = d }
}

// WithSuccessThreshold sets how many consecutive half-open successes are
// needed before the circuit closes. Default 2.
func WithSuccessThreshold(n int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) { cb.successThreshold = n }
}

// NewCircuitBreaker creates a circuit breaker with the given name.
// Defaults: 5 failures to open, 30s reset timeout, 2 successes to close.
func NewCircuitBreaker(name string, opts ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             name,
		maxFailures:      5,
		resetTimeout:     30 * time.Second,
		successThreshold: 2,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

func (cb *CircuitBreaker) Name() string { return cb.name }

// State returns the current state, resolving an elapsed cooldown into
// half-open as a side effect.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// currentState must be called with the write lock held: it mutates state
// when an open circuit's cooldown has elapsed.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.resetTimeout {
		cb.state = StateHalfOpen
		cb.halfOpenSuccess = 0
	}
	return cb.state
}

func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Allow reports whether a call may proceed without running it.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState() != StateOpen
}

// RecordSuccess registers a successful call. From half-open, the circuit
// closes only once successThreshold consecutive successes have landed; a
// success while closed simply resets the failure counter.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0

	switch cb.state {
	case StateHalfOpen:
		cb.halfOpenSuccess++
		if cb.halfOpenSuccess >= cb.successThreshold {
			cb.state = StateClosed
			cb.halfOpenSuccess = 0
		}
	case StateOpen:
		// a success can only land here if the caller bypassed Allow; treat
		// it as evidence of recovery and start the half-open count.
		cb.state = StateHalfOpen
		cb.halfOpenSuccess = 1
	}
}

// RecordFailure registers a failed call. Any half-open failure reopens the
// circuit immediately and resets the consecutive-success count.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = time.Now()
	cb.halfOpenSuccess = 0

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		return
	}

	cb.failures++
	if cb.failures >= cb.maxFailures {
		cb.state = StateOpen
	}
}

// Execute runs fn through the circuit breaker, returning ErrCircuitOpen
// without calling fn when the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	err := fn()
	if err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}
