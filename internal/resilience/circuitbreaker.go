package resilience

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls are rejected
	StateHalfOpen              // one probe call is allowed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker trips after failThreshold consecutive failures and lets a single
// probe through once cooldown has elapsed.
//
//	Closed -> Open      after failThreshold consecutive failures
//	Open -> HalfOpen    after cooldown
//	HalfOpen -> Closed  on success, back to Open on failure
type CircuitBreaker struct {
	mu            sync.Mutex
	state         State
	failCount     int
	failThreshold int
	cooldown      time.Duration
	openedAt      time.Time
	probing       bool
	now           func() time.Time
	// isFailure decides which errors count against the breaker.
	isFailure func(error) bool
}

type Option func(*CircuitBreaker)

// WithFailureFilter limits which errors trip the breaker. Errors for which
// fn returns false are passed through without being counted.
func WithFailureFilter(fn func(error) bool) Option {
	return func(cb *CircuitBreaker) { cb.isFailure = fn }
}

func withClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = now }
}

func NewCircuitBreaker(failThreshold int, cooldown time.Duration, opts ...Option) *CircuitBreaker {
	if failThreshold <= 0 {
		failThreshold = 1
	}
	cb := &CircuitBreaker{
		state:         StateClosed,
		failThreshold: failThreshold,
		cooldown:      cooldown,
		now:           time.Now,
		isFailure:     func(err error) bool { return err != nil },
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probing = true
	case StateHalfOpen:
		if cb.probing {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.probing = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probing = false

	if err != nil && !cb.isFailure(err) {
		return err
	}
	if err != nil {
		cb.failCount++
		if cb.state == StateHalfOpen || cb.failCount >= cb.failThreshold {
			cb.state = StateOpen
			cb.openedAt = cb.now()
		}
		return err
	}

	cb.failCount = 0
	cb.state = StateClosed
	return nil
}

func (cb *CircuitBreaker) CurrentState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
