package resilience

import (
	"errors"
	"testing"
	"time"
)

var errProviderDown = errors.New("provider down")

// trip drives b to the open state with n consecutive failures.
func trip(t *testing.T, b *Breaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := b.Execute(func() error { return errProviderDown }); !errors.Is(err, errProviderDown) {
			t.Fatalf("failure %d: err = %v, want errProviderDown", i, err)
		}
	}
}

func TestBreaker_OpensAfterFailureStreak(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{Name: "deepgram", MaxFailures: 3})

	trip(t, b, 2)
	if got := b.State(); got != StateClosed {
		t.Fatalf("state after 2 failures = %v, want closed", got)
	}

	trip(t, b, 1)
	if got := b.State(); got != StateOpen {
		t.Fatalf("state after 3 failures = %v, want open", got)
	}
}

func TestBreaker_SuccessResetsStreak(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{Name: "deepgram", MaxFailures: 2})

	trip(t, b, 1)
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("success call: %v", err)
	}
	trip(t, b, 1)
	if got := b.State(); got != StateClosed {
		t.Fatalf("state = %v, want closed (streak reset by the success)", got)
	}
}

func TestBreaker_OpenShedsWithoutCalling(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{Name: "deepgram", MaxFailures: 1, ResetTimeout: time.Hour})
	trip(t, b, 1)

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Fatal("open breaker still forwarded the call")
	}
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{
		Name:         "deepgram",
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  2,
	})
	trip(t, b, 1)
	time.Sleep(20 * time.Millisecond)

	if got := b.State(); got != StateHalfOpen {
		t.Fatalf("state after reset timeout = %v, want half-open", got)
	}
	for i := 0; i < 2; i++ {
		if err := b.Execute(func() error { return nil }); err != nil {
			t.Fatalf("trial %d: %v", i, err)
		}
	}
	if got := b.State(); got != StateClosed {
		t.Fatalf("state after successful trials = %v, want closed", got)
	}
}

func TestBreaker_FailedTrialReopens(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{
		Name:         "deepgram",
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  3,
	})
	trip(t, b, 1)
	time.Sleep(20 * time.Millisecond)

	trip(t, b, 1) // the trial call fails
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen after a failed trial", err)
	}
}

func TestBreaker_TrialQuotaSheds(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{
		Name:         "deepgram",
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  1,
	})
	trip(t, b, 1)
	time.Sleep(20 * time.Millisecond)

	// Hold the single trial slot open and verify a concurrent call is shed.
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen while trial quota is used", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("trial call: %v", err)
	}
}

func TestBreaker_Reset(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{Name: "deepgram", MaxFailures: 1, ResetTimeout: time.Hour})
	trip(t, b, 1)

	b.Reset()
	if got := b.State(); got != StateClosed {
		t.Fatalf("state after Reset = %v, want closed", got)
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("call after Reset: %v", err)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()
	cases := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
