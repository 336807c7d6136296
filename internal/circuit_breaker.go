package internal

import (
	"slices"
	"sync"
	"time"
)

// BreakerState is the position of a CircuitBreaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker guards the HTTP transport. It opens after threshold
// transport failures inside window, rejects requests for openDuration, then
// lets a single probe through: the probe's outcome closes or reopens it.
type CircuitBreaker struct {
	mu           sync.Mutex
	threshold    int
	window       time.Duration
	openDuration time.Duration
	now          func() time.Time

	failures  []time.Time
	openUntil time.Time
	probing   bool
}

// NewCircuitBreaker returns nil when threshold is zero or less; a nil breaker
// allows every request.
func NewCircuitBreaker(threshold int, window, openDuration time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		return nil
	}
	return &CircuitBreaker{
		threshold:    threshold,
		window:       window,
		openDuration: openDuration,
		now:          time.Now,
	}
}

// Allow reports whether a request may be sent. In the half-open state only
// the first caller is allowed until its outcome is recorded.
func (cb *CircuitBreaker) Allow() bool {
	if cb == nil {
		return true
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateLocked() {
	case BreakerOpen:
		return false
	case BreakerHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
	}
	return true
}

// State returns the current position of the breaker.
func (cb *CircuitBreaker) State() BreakerState {
	if cb == nil {
		return BreakerClosed
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

func (cb *CircuitBreaker) stateLocked() BreakerState {
	switch {
	case cb.openUntil.IsZero():
		return BreakerClosed
	case cb.now().Before(cb.openUntil):
		return BreakerOpen
	default:
		return BreakerHalfOpen
	}
}

// RecordFailure notes a request that got no response. A failed probe
// reopens the breaker immediately.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	if cb.probing {
		cb.probing = false
		cb.openUntil = now.Add(cb.openDuration)
		return
	}

	cutoff := now.Add(-cb.window)
	cb.failures = slices.DeleteFunc(cb.failures, func(at time.Time) bool { return !at.After(cutoff) })
	cb.failures = append(cb.failures, now)
	if len(cb.failures) >= cb.threshold {
		cb.failures = cb.failures[:0]
		cb.openUntil = now.Add(cb.openDuration)
	}
}

// RecordSuccess closes the breaker and forgets past failures.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = cb.failures[:0]
	cb.openUntil = time.Time{}
	cb.probing = false
}
