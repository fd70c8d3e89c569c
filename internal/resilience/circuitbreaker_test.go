package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errFail = errors.New("fail")

func TestCircuitBreaker_ClosedState(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errFail }), errFail)
	}
	assert.Equal(t, StateClosed, cb.CurrentState())

	_ = cb.Execute(func() error { return errFail })
	assert.Equal(t, StateOpen, cb.CurrentState())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)

	_ = cb.Execute(func() error { return errFail })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errFail })
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := NewCircuitBreaker(2, time.Minute, withClock(clock.Now))

	_ = cb.Execute(func() error { return errFail })
	_ = cb.Execute(func() error { return errFail })
	require.Equal(t, StateOpen, cb.CurrentState())

	clock.Advance(time.Minute)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := NewCircuitBreaker(3, time.Minute, withClock(clock.Now))

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errFail })
	}
	clock.Advance(2 * time.Minute)

	_ = cb.Execute(func() error { return errFail })
	assert.Equal(t, StateOpen, cb.CurrentState())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
}

func TestCircuitBreaker_SingleProbe(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := NewCircuitBreaker(1, time.Minute, withClock(clock.Now))

	_ = cb.Execute(func() error { return errFail })
	clock.Advance(time.Minute)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_FailureFilter(t *testing.T) {
	cb := NewBreaker(1, time.Minute)

	assert.ErrorIs(t, cb.Execute(func() error { return context.Canceled }), context.Canceled)
	assert.Equal(t, StateClosed, cb.CurrentState())

	_ = cb.Execute(func() error { return errFail })
	assert.Equal(t, StateOpen, cb.CurrentState())
}
