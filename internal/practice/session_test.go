package practice_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/recite-labs/recite/internal/practice"
	"github.com/recite-labs/recite/pkg/provider/tts"
	ttsmock "github.com/recite-labs/recite/pkg/provider/tts/mock"
	"github.com/recite-labs/recite/pkg/types"
)

var testVoice = types.VoiceProfile{ID: "aura-2-draco-en", Name: "Draco", Provider: "deepgram"}

func TestManager_Audio_CachesPerSession(t *testing.T) {
	t.Parallel()
	mock := ttsmock.New()
	m := practice.NewManager(mock, 2)

	first, err := m.Audio(t.Context(), "s1", "objection sustained", testVoice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.Audio(t.Context(), "s1", "objection sustained", testVoice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first) != string(second) {
		t.Error("cached clip differs from first synthesis")
	}
	if mock.CallCount() != 1 {
		t.Errorf("provider called %d times, want 1 (second hit should be cached)", mock.CallCount())
	}
}

func TestManager_Audio_DistinctVoicesMiss(t *testing.T) {
	t.Parallel()
	mock := ttsmock.New()
	m := practice.NewManager(mock, 2)

	if _, err := m.Audio(t.Context(), "s1", "hello", testVoice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other := types.VoiceProfile{ID: "aura-2-thalia-en"}
	if _, err := m.Audio(t.Context(), "s1", "hello", other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("provider called %d times, want 2 (different voices)", mock.CallCount())
	}
}

func TestManager_Audio_NilProvider(t *testing.T) {
	t.Parallel()
	m := practice.NewManager(nil, 1)

	_, err := m.Audio(t.Context(), "s1", "hello", testVoice)
	if !errors.Is(err, tts.ErrUnavailable) {
		t.Fatalf("err = %v, want tts.ErrUnavailable", err)
	}
}

func TestManager_Reset_DropsCache(t *testing.T) {
	t.Parallel()
	mock := ttsmock.New()
	m := practice.NewManager(mock, 2)

	if _, err := m.Audio(t.Context(), "s1", "hello", testVoice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.CachedClips("s1") != 1 {
		t.Fatalf("cached clips = %d, want 1", m.CachedClips("s1"))
	}

	m.Reset("s1")
	if m.CachedClips("s1") != 0 {
		t.Fatalf("cached clips after reset = %d, want 0", m.CachedClips("s1"))
	}

	if _, err := m.Audio(t.Context(), "s1", "hello", testVoice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("provider called %d times, want 2 (reset should force re-synthesis)", mock.CallCount())
	}
}

func TestManager_Prefetch_WarmsCache(t *testing.T) {
	t.Parallel()
	mock := ttsmock.New()
	m := practice.NewManager(mock, 3)

	texts := []string{"brown fox jumps", "lazy dog", "over the moon"}
	m.Prefetch(t.Context(), "s1", texts, testVoice)

	if m.CachedClips("s1") != 3 {
		t.Fatalf("cached clips = %d, want 3", m.CachedClips("s1"))
	}

	// Every later request must hit the cache.
	for _, text := range texts {
		if _, err := m.Audio(t.Context(), "s1", text, testVoice); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if mock.CallCount() != 3 {
		t.Errorf("provider called %d times, want 3", mock.CallCount())
	}
}

func TestManager_Prefetch_SwallowsErrors(t *testing.T) {
	t.Parallel()
	mock := &ttsmock.Provider{Err: errors.New("provider down")}
	m := practice.NewManager(mock, 2)

	// Must not panic or fail; clips are simply not cached.
	m.Prefetch(t.Context(), "s1", []string{"a", "b"}, testVoice)
	if m.CachedClips("s1") != 0 {
		t.Errorf("cached clips = %d, want 0", m.CachedClips("s1"))
	}
}

func TestManager_SessionCountCallback(t *testing.T) {
	t.Parallel()
	m := practice.NewManager(ttsmock.New(), 1)
	var count atomic.Int64
	m.OnSessionCountChange = func(delta int64) { count.Add(delta) }

	if _, err := m.Audio(t.Context(), "s1", "a", testVoice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Audio(t.Context(), "s2", "a", testVoice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := count.Load(); got != 2 {
		t.Fatalf("session count = %d, want 2", got)
	}

	m.Reset("s1")
	m.Reset("s1") // second reset of the same session is a no-op
	if got := count.Load(); got != 1 {
		t.Fatalf("session count after reset = %d, want 1", got)
	}
}

func TestManager_LastReference(t *testing.T) {
	t.Parallel()
	m := practice.NewManager(ttsmock.New(), 1)

	if got := m.LastReference("s1"); got != "" {
		t.Fatalf("fresh session last reference = %q, want empty", got)
	}
	m.SetLastReference("s1", "the quick brown fox")
	if got := m.LastReference("s1"); got != "the quick brown fox" {
		t.Fatalf("last reference = %q", got)
	}
}
