// Package history persists scored read-aloud attempts and derives
// per-word trouble statistics from them.
//
// Three backends are provided: a PostgreSQL store ([Store]) for real
// deployments, an append-only JSON-lines [FileStore] for single-user
// setups, and an in-memory [MemStore] used when no backend is configured.
package history

import (
	"context"
	"strings"
	"time"

	"github.com/recite-labs/recite/internal/align"
)

// Attempt is one scored read-aloud recording.
type Attempt struct {
	// ID is assigned by the store on save. Zero until then.
	ID int64 `json:"id,omitempty"`

	// SessionID groups attempts belonging to one practice session.
	SessionID string `json:"session_id"`

	// Reference is the text the reader was asked to read.
	Reference string `json:"reference"`

	// Transcript is what the speech recogniser heard.
	Transcript string `json:"transcript"`

	// Score is the alignment score in [0, 100].
	Score float64 `json:"score"`

	// Passed reports whether Score met the configured pass threshold.
	Passed bool `json:"passed"`

	// Mismatches are the word-level differences found by the aligner.
	Mismatches []align.Mismatch `json:"mismatches"`

	// AudioDuration is the length of the recording, if known.
	AudioDuration time.Duration `json:"audio_duration,omitempty"`

	// CreatedAt is when the attempt was scored.
	CreatedAt time.Time `json:"created_at"`
}

// WordStat is an aggregate of how often one reference word was misread.
type WordStat struct {
	// Word is the reference-side token that was missed.
	Word string `json:"word"`

	// Misses counts how many attempts got this word wrong.
	Misses int `json:"misses"`

	// LastMissedAt is the timestamp of the most recent miss.
	LastMissedAt time.Time `json:"last_missed_at"`
}

// Recorder is the attempt persistence interface used by the server.
type Recorder interface {
	// SaveAttempt persists the attempt and fills in its ID.
	SaveAttempt(ctx context.Context, attempt *Attempt) error

	// ListAttempts returns attempts for the session, newest first.
	// A sessionID of "" returns attempts across all sessions.
	// limit <= 0 means no limit.
	ListAttempts(ctx context.Context, sessionID string, limit int) ([]Attempt, error)

	// TroubleWords returns the most frequently misread reference words for
	// the session, most-missed first. A sessionID of "" aggregates across
	// all sessions. limit <= 0 means no limit.
	TroubleWords(ctx context.Context, sessionID string, limit int) ([]WordStat, error)
}

// missedWords extracts the reference-side tokens the reader got wrong.
// Insertions carry no reference word, so they contribute nothing.
func missedWords(mismatches []align.Mismatch) []string {
	var words []string
	for _, m := range mismatches {
		if m.Kind == align.OpInsert {
			continue
		}
		words = append(words, strings.Fields(m.Reference)...)
	}
	return words
}
