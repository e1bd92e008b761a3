package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// breaker opens after threshold consecutive failures and lets a single trial
// through once openFor has elapsed.
type breaker struct {
	mu        sync.Mutex
	state     breakerState
	failures  int
	threshold int
	openFor   time.Duration
	openedAt  time.Time
	now       func() time.Time
	logger    zerolog.Logger
}

func newBreaker(threshold int, openFor time.Duration, logger zerolog.Logger) *breaker {
	if threshold <= 0 {
		threshold = 1
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &breaker{threshold: threshold, openFor: openFor, now: time.Now, logger: logger}
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.openFor {
			return false
		}
		b.transitionLocked(breakerHalfOpen)
		return true
	case breakerHalfOpen:
		// one trial at a time
		return false
	default:
		return true
	}
}

func (b *breaker) report(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ok {
		b.failures = 0
		if b.state != breakerClosed {
			b.transitionLocked(breakerClosed)
		}
		return
	}
	b.failures++
	if b.state == breakerHalfOpen || b.failures >= b.threshold {
		b.transitionLocked(breakerOpen)
	}
}

func (b *breaker) current() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) transitionLocked(next breakerState) {
	prev := b.state
	b.state = next
	b.failures = 0
	if next == breakerOpen {
		b.openedAt = b.now()
	}
	b.logger.Info().Str("from_state", prev.String()).Str("to_state", next.String()).Msg("ratelimit_breaker_transition")
}
