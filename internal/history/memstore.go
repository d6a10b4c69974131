package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Compile-time interface check.
var _ Recorder = (*MemStore)(nil)

// MemStore keeps attempts in memory. It is the default backend when no
// PostgreSQL DSN or file path is configured, and doubles as a test double.
// Safe for concurrent use.
type MemStore struct {
	mu       sync.Mutex
	attempts []Attempt
	nextID   int64
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{nextID: 1}
}

// SaveAttempt implements [Recorder].
func (m *MemStore) SaveAttempt(_ context.Context, attempt *Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	attempt.ID = m.nextID
	m.nextID++
	m.attempts = append(m.attempts, *attempt)
	return nil
}

// ListAttempts implements [Recorder].
func (m *MemStore) ListAttempts(_ context.Context, sessionID string, limit int) ([]Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Attempt, 0, len(m.attempts))
	for i := len(m.attempts) - 1; i >= 0; i-- {
		if sessionID != "" && m.attempts[i].SessionID != sessionID {
			continue
		}
		out = append(out, m.attempts[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// TroubleWords implements [Recorder].
func (m *MemStore) TroubleWords(_ context.Context, sessionID string, limit int) ([]WordStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byWord := make(map[string]*WordStat)
	for _, a := range m.attempts {
		if sessionID != "" && a.SessionID != sessionID {
			continue
		}
		for _, word := range missedWords(a.Mismatches) {
			ws, ok := byWord[word]
			if !ok {
				ws = &WordStat{Word: word}
				byWord[word] = ws
			}
			ws.Misses++
			if a.CreatedAt.After(ws.LastMissedAt) {
				ws.LastMissedAt = a.CreatedAt
			}
		}
	}

	stats := make([]WordStat, 0, len(byWord))
	for _, ws := range byWord {
		stats = append(stats, *ws)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Misses != stats[j].Misses {
			return stats[i].Misses > stats[j].Misses
		}
		return stats[i].LastMissedAt.After(stats[j].LastMissedAt)
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}
