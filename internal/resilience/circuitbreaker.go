// Package resilience shields the practice loop from flaky speech and
// language backends. Each provider slot (recognition, synthesis, coaching)
// gets a fallback group: an ordered list of providers, each guarded by its
// own circuit breaker, tried in order until one answers.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a provider's breaker is shedding calls
// instead of forwarding them.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// State is a breaker position.
type State int

const (
	// StateClosed — calls flow through to the provider.
	StateClosed State = iota

	// StateOpen — calls fail fast with [ErrCircuitOpen] until the reset
	// timeout elapses.
	StateOpen

	// StateHalfOpen — a bounded number of trial calls probe whether the
	// provider has recovered.
	StateHalfOpen
)

// String returns "closed", "open", or "half-open".
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

// BreakerConfig tunes one provider's circuit breaker. Zero values take the
// documented defaults; [SlotConfig] supplies per-slot tunings.
type BreakerConfig struct {
	// Name labels the guarded provider in logs and errors.
	Name string

	// MaxFailures is the consecutive-failure streak that opens the breaker.
	// Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before trialling the
	// provider again. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is how many trial calls the half-open state admits; that
	// many successes close the breaker again. Default: 3.
	HalfOpenMax int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenMax <= 0 {
		c.HalfOpenMax = 3
	}
	return c
}

// Breaker is a three-position circuit breaker guarding one remote provider.
// A streak of consecutive failures opens it; after the reset timeout it
// admits trial calls, and enough trial successes close it again. Safe for
// concurrent use.
type Breaker struct {
	cfg BreakerConfig

	mu         sync.Mutex
	state      State
	failStreak int
	openedAt   time.Time
	trialsIn   int
	trialsOK   int
}

// NewBreaker returns a closed [Breaker] with cfg's tuning.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.withDefaults()}
}

// Execute runs fn through the breaker and feeds its outcome back into the
// breaker state. While the breaker is open and the reset timeout has not
// elapsed, fn is not called and Execute fails fast with [ErrCircuitOpen].
func (b *Breaker) Execute(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.settle(err)
	return err
}

// admit decides whether one call may proceed, moving an expired open breaker
// into half-open on the way.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.openedAt) < b.cfg.ResetTimeout {
			return fmt.Errorf("%w: %s", ErrCircuitOpen, b.cfg.Name)
		}
		b.state = StateHalfOpen
		b.trialsIn = 0
		b.trialsOK = 0
		slog.Info("provider breaker trialling recovery", "provider", b.cfg.Name)
		b.trialsIn++

	case StateHalfOpen:
		if b.trialsIn >= b.cfg.HalfOpenMax {
			return fmt.Errorf("%w: %s (trial quota used)", ErrCircuitOpen, b.cfg.Name)
		}
		b.trialsIn++
	}
	return nil
}

// settle records one call outcome.
func (b *Breaker) settle(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		if b.state == StateHalfOpen {
			// A failed trial reopens immediately; no point burning the
			// remaining quota on a provider that is still down.
			b.open()
			return
		}
		b.failStreak++
		if b.failStreak >= b.cfg.MaxFailures {
			b.open()
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		b.trialsOK++
		if b.trialsOK >= b.cfg.HalfOpenMax {
			b.state = StateClosed
			b.failStreak = 0
			slog.Info("provider breaker closed", "provider", b.cfg.Name)
		}
	case StateClosed:
		b.failStreak = 0
	}
}

// open must be called with b.mu held.
func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = time.Now()
	b.failStreak = 0
	slog.Warn("provider breaker opened",
		"provider", b.cfg.Name,
		"retry_after", b.cfg.ResetTimeout)
}

// State reports the breaker position. An open breaker whose reset timeout
// has elapsed reports half-open, since the next call will be admitted as a
// trial.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.openedAt) >= b.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failStreak = 0
	b.trialsIn = 0
	b.trialsOK = 0
}
