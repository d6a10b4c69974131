package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrAllFailed is returned when every provider in a fallback group either
// failed or had its breaker open.
var ErrAllFailed = errors.New("resilience: all providers failed")

// Slot identifies which provider slot a fallback group guards. The slot
// labels log lines and errors and selects the breaker tuning.
type Slot string

const (
	SlotSTT Slot = "stt"
	SlotTTS Slot = "tts"
	SlotLLM Slot = "llm"
)

// FallbackConfig tunes a fallback group. Every provider in the group gets
// its own breaker built from Breaker (with the provider's name filled in).
type FallbackConfig struct {
	// Slot labels the group in logs and errors. Optional.
	Slot Slot

	// Breaker is the per-provider breaker tuning.
	Breaker BreakerConfig
}

// SlotConfig returns the failover tuning for a provider slot. Recognition
// sits on the scoring request path, so its breaker trips fast and retries
// soon; synthesis mostly runs in background prefetch and tolerates a longer
// streak; coaching tips are optional extras and get the longest cool-down.
func SlotConfig(slot Slot) FallbackConfig {
	cfg := FallbackConfig{Slot: slot}
	switch slot {
	case SlotSTT:
		cfg.Breaker = BreakerConfig{MaxFailures: 3, ResetTimeout: 15 * time.Second, HalfOpenMax: 2}
	case SlotTTS:
		cfg.Breaker = BreakerConfig{MaxFailures: 5, ResetTimeout: 30 * time.Second, HalfOpenMax: 3}
	case SlotLLM:
		cfg.Breaker = BreakerConfig{MaxFailures: 5, ResetTimeout: time.Minute, HalfOpenMax: 1}
	}
	return cfg
}

type groupEntry[T any] struct {
	name     string
	provider T
	breaker  *Breaker
}

// FallbackGroup is an ordered list of interchangeable providers, each behind
// its own circuit breaker. Execute tries them first to last, skipping open
// breakers, until one answers. The typed wrappers ([STTFallback],
// [TTSFallback], [LLMFallback]) adapt groups to the provider interfaces.
type FallbackGroup[T any] struct {
	cfg     FallbackConfig
	entries []groupEntry[T]
}

// NewFallbackGroup creates a group with primary as the first provider tried.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	g := &FallbackGroup[T]{cfg: cfg}
	g.AddFallback(primaryName, primary)
	return g
}

// AddFallback appends a provider tried after all earlier entries.
func (g *FallbackGroup[T]) AddFallback(name string, provider T) {
	bc := g.cfg.Breaker
	bc.Name = name
	g.entries = append(g.entries, groupEntry[T]{
		name:     name,
		provider: provider,
		breaker:  NewBreaker(bc),
	})
}

// Execute runs fn against the first provider whose breaker admits the call
// and which does not itself fail. When every entry is exhausted it returns
// [ErrAllFailed] wrapping the last provider error.
func (g *FallbackGroup[T]) Execute(fn func(provider T) error) error {
	var lastErr error
	for _, e := range g.entries {
		err := e.breaker.Execute(func() error { return fn(e.provider) })
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping provider, breaker open",
				"slot", g.cfg.Slot, "provider", e.name)
		} else {
			slog.Warn("provider failed, trying next",
				"slot", g.cfg.Slot, "provider", e.name, "err", err)
			lastErr = err
		}
	}
	if lastErr == nil {
		return fmt.Errorf("%w: %s: every breaker open", ErrAllFailed, g.cfg.Slot)
	}
	return fmt.Errorf("%w: %s: %v", ErrAllFailed, g.cfg.Slot, lastErr)
}

// ExecuteWithResult runs fn through the group's failover logic and carries a
// typed result out. Method type parameters are not a thing, hence the
// package-level function.
func ExecuteWithResult[T, R any](g *FallbackGroup[T], fn func(provider T) (R, error)) (R, error) {
	var result R
	err := g.Execute(func(provider T) error {
		var innerErr error
		result, innerErr = fn(provider)
		return innerErr
	})
	return result, err
}
