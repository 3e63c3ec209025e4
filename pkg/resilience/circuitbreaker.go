// Package resilience provides circuit breaker and rate limiter primitives for
// calls to upstream services.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/WessleyAI/vindecoder/pkg/fn"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed   State = iota // normal operation
	StateOpen                  // tripped, reject calls
	StateHalfOpen              // allowing trial calls
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

var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerOpts configures the circuit breaker.
type BreakerOpts struct {
	// FailThreshold is how many consecutive failures trip the breaker.
	FailThreshold int
	// Timeout is how long the breaker stays open before entering half-open.
	Timeout time.Duration
	// HalfOpenMax is the number of trial calls allowed in half-open state.
	HalfOpenMax int
	// IsFailure decides whether an error counts against the breaker.
	// nil counts every error.
	IsFailure func(error) bool
	// OnStateChange, if set, is called after each transition. It runs with
	// the breaker unlocked.
	OnStateChange func(from, to State)
}

// DefaultBreakerOpts provides sensible defaults.
var DefaultBreakerOpts = BreakerOpts{
	FailThreshold: 5,
	Timeout:       30 * time.Second,
	HalfOpenMax:   1,
}

// Breaker implements a circuit breaker with closed/open/half-open states.
type Breaker struct {
	mu            sync.Mutex
	opts          BreakerOpts
	state         State
	failures      int
	openedAt      time.Time
	halfOpenCount int
	now           func() time.Time
}

// NewBreaker creates a circuit breaker with the given options.
func NewBreaker(opts BreakerOpts) *Breaker {
	if opts.FailThreshold <= 0 {
		opts.FailThreshold = DefaultBreakerOpts.FailThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBreakerOpts.Timeout
	}
	if opts.HalfOpenMax <= 0 {
		opts.HalfOpenMax = DefaultBreakerOpts.HalfOpenMax
	}
	return &Breaker{opts: opts, now: time.Now}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	st, from := b.currentState()
	b.mu.Unlock()
	b.notify(from, st)
	return st
}

// currentState returns state, moving open to half-open once Timeout has
// elapsed. The previous state is returned so callers can notify. Must hold mu.
func (b *Breaker) currentState() (State, State) {
	from := b.state
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.opts.Timeout {
		b.state = StateHalfOpen
		b.halfOpenCount = 0
	}
	return b.state, from
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.opts.OnStateChange != nil {
		b.opts.OnStateChange(from, to)
	}
}

// acquire reserves a call slot or returns ErrCircuitOpen.
func (b *Breaker) acquire() error {
	b.mu.Lock()
	st, from := b.currentState()
	var err error
	switch st {
	case StateOpen:
		err = ErrCircuitOpen
	case StateHalfOpen:
		if b.halfOpenCount >= b.opts.HalfOpenMax {
			err = ErrCircuitOpen
		} else {
			b.halfOpenCount++
		}
	}
	b.mu.Unlock()
	b.notify(from, st)
	return err
}

// record updates the breaker with the outcome of a call.
func (b *Breaker) record(err error) {
	failed := err != nil && (b.opts.IsFailure == nil || b.opts.IsFailure(err))

	b.mu.Lock()
	from := b.state
	if failed {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.opts.FailThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
			b.failures = 0
			b.halfOpenCount = 0
		}
	} else {
		if b.state == StateHalfOpen {
			b.state = StateClosed
		}
		b.failures = 0
	}
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
}

// Call executes f through the circuit breaker.
func (b *Breaker) Call(ctx context.Context, f func(context.Context) error) error {
	if err := b.acquire(); err != nil {
		return err
	}
	err := f(ctx)
	b.record(err)
	return err
}

// CallResult is the fn.Result form of Call.
func CallResult[T any](b *Breaker, ctx context.Context, f func(context.Context) fn.Result[T]) fn.Result[T] {
	if err := b.acquire(); err != nil {
		return fn.Err[T](err)
	}
	result := f(ctx)
	_, err := result.Unwrap()
	b.record(err)
	return result
}
