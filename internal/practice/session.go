package practice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/recite-labs/recite/pkg/provider/tts"
	"github.com/recite-labs/recite/pkg/types"
)

// clipKey identifies one cached audio clip.
type clipKey struct {
	text  string
	voice string
}

// session holds per-session state: the synthesized-audio cache and a note of
// the most recent reference text so drills can chain from it.
type session struct {
	mu      sync.Mutex
	clips   map[clipKey][]byte
	lastRef string
}

// Manager owns per-session practice state. Audio clips are synthesized once
// per (text, voice) pair and cached until the session is reset; resetting a
// session drops its cache so a fresh reading starts clean.
//
// Manager is safe for concurrent use.
type Manager struct {
	tts             tts.Provider
	prefetchWorkers int

	mu       sync.Mutex
	sessions map[string]*session

	// OnSessionCountChange, when set, is invoked with +1/-1 as sessions are
	// created and reset. Used to feed the active-sessions gauge.
	OnSessionCountChange func(delta int64)
}

// NewManager creates a Manager that synthesizes audio through provider.
// provider may be nil; audio requests then fail with [tts.ErrUnavailable].
// prefetchWorkers bounds concurrent synthesis during [Manager.Prefetch];
// values below 1 are treated as 1.
func NewManager(provider tts.Provider, prefetchWorkers int) *Manager {
	if prefetchWorkers < 1 {
		prefetchWorkers = 1
	}
	return &Manager{
		tts:             provider,
		prefetchWorkers: prefetchWorkers,
		sessions:        make(map[string]*session),
	}
}

// Audio returns the synthesized clip for text in voice, serving from the
// session cache when possible. A cache miss synthesizes and stores the clip.
func (m *Manager) Audio(ctx context.Context, sessionID, text string, voice types.VoiceProfile) ([]byte, error) {
	if m.tts == nil {
		return nil, fmt.Errorf("practice: synthesize: %w", tts.ErrUnavailable)
	}

	s := m.session(sessionID)
	key := clipKey{text: text, voice: voice.ID}

	s.mu.Lock()
	clip, ok := s.clips[key]
	s.mu.Unlock()
	if ok {
		return clip, nil
	}

	clip, err := m.tts.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, fmt.Errorf("practice: synthesize: %w", err)
	}

	s.mu.Lock()
	s.clips[key] = clip
	s.mu.Unlock()
	return clip, nil
}

// Prefetch synthesizes clips for all texts concurrently, bounded by the
// configured worker count, and warms the session cache. Errors are logged
// and swallowed per clip: a failed prefetch only means the clip is fetched
// again on demand. A nil TTS provider makes Prefetch a no-op.
func (m *Manager) Prefetch(ctx context.Context, sessionID string, texts []string, voice types.VoiceProfile) {
	if m.tts == nil || len(texts) == 0 {
		return
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(m.prefetchWorkers)
	for _, text := range texts {
		eg.Go(func() error {
			if _, err := m.Audio(egCtx, sessionID, text, voice); err != nil {
				slog.Warn("drill audio prefetch failed", "text", text, "error", err)
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// SetLastReference records the reference text most recently scored in the
// session.
func (m *Manager) SetLastReference(sessionID, reference string) {
	s := m.session(sessionID)
	s.mu.Lock()
	s.lastRef = reference
	s.mu.Unlock()
}

// LastReference returns the reference text most recently scored in the
// session, or "" if none.
func (m *Manager) LastReference(sessionID string) string {
	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRef
}

// Reset drops the session's cached audio and state. The next request under
// the same ID starts a fresh session.
func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	_, existed := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if existed && m.OnSessionCountChange != nil {
		m.OnSessionCountChange(-1)
	}
}

// CachedClips reports how many clips the session currently holds. Zero for
// unknown sessions.
func (m *Manager) CachedClips(sessionID string) int {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
}

// session returns the state for sessionID, creating it on first use.
func (m *Manager) session(sessionID string) *session {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &session{clips: make(map[clipKey][]byte)}
		m.sessions[sessionID] = s
	}
	m.mu.Unlock()

	if !ok && m.OnSessionCountChange != nil {
		m.OnSessionCountChange(1)
	}
	return s
}
