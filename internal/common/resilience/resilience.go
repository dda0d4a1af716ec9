// internal/common/resilience/resilience.go
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Retry runs fn up to maxRetries+1 times with exponential backoff (1s, 2s, 4s...).
// It stops early when the context is cancelled.
func Retry(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}

// ErrBreakerOpen is returned when the circuit is open and calls are rejected.
var ErrBreakerOpen = errors.New("circuit breaker is open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// successLimit is how many consecutive half-open successes close the circuit.
const successLimit = 3

// Breaker is a circuit breaker with closed, open and half-open states.
// After failureLimit consecutive failures it opens; after resetTimeout
// trial calls are allowed through, and the circuit closes again only
// after successLimit consecutive successes. A single half-open failure
// reopens it.
type Breaker struct {
	mu           sync.Mutex
	state        breakerState
	failureLimit int
	resetTimeout time.Duration
	failures     int
	successes    int
	openedAt     time.Time
	now          func() time.Time
}

// NewBreaker creates a circuit breaker.
func NewBreaker(failureLimit int, resetTimeout time.Duration) *Breaker {
	if failureLimit <= 0 {
		failureLimit = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{
		failureLimit: failureLimit,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openedAt) >= b.resetTimeout {
			b.state = stateHalfOpen
			b.successes = 0
			return nil
		}
		return ErrBreakerOpen
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		if b.state == stateHalfOpen {
			b.successes++
			if b.successes >= successLimit {
				b.state = stateClosed
				b.successes = 0
			}
		}
		return
	}

	if b.state == stateHalfOpen {
		b.state = stateOpen
		b.openedAt = b.now()
		b.successes = 0
		return
	}

	b.failures++
	if b.failures >= b.failureLimit {
		b.state = stateOpen
		b.openedAt = b.now()
	}
}

// State returns a human-readable state name for health reporting.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}
