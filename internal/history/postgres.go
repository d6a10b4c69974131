package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time interface check.
var _ Recorder = (*Store)(nil)

const ddlAttempts = `
CREATE TABLE IF NOT EXISTS attempts (
    id           BIGSERIAL    PRIMARY KEY,
    session_id   TEXT         NOT NULL,
    reference    TEXT         NOT NULL,
    transcript   TEXT         NOT NULL,
    score        DOUBLE PRECISION NOT NULL,
    passed       BOOLEAN      NOT NULL,
    mismatches   JSONB        NOT NULL DEFAULT '[]',
    duration_ns  BIGINT       NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_attempts_session_id
    ON attempts (session_id);

CREATE INDEX IF NOT EXISTS idx_attempts_created_at
    ON attempts (created_at);

CREATE TABLE IF NOT EXISTS word_misses (
    attempt_id  BIGINT       NOT NULL REFERENCES attempts (id) ON DELETE CASCADE,
    session_id  TEXT         NOT NULL,
    word        TEXT         NOT NULL,
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_word_misses_session_word
    ON word_misses (session_id, word);

CREATE INDEX IF NOT EXISTS idx_word_misses_word
    ON word_misses (word);
`

// Store is the PostgreSQL-backed attempt history. It holds a single
// [pgxpool.Pool]; all operations are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store, establishes a connection pool to the PostgreSQL
// database at dsn, and runs [Migrate] to ensure the required tables exist.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("history store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Migrate creates or ensures all required database tables exist. It is
// idempotent and safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlAttempts); err != nil {
		return fmt.Errorf("history migrate: %w", err)
	}
	return nil
}

// Ping verifies database connectivity. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveAttempt implements [Recorder]. The attempt row and its per-word miss
// rows are written in one transaction.
func (s *Store) SaveAttempt(ctx context.Context, attempt *Attempt) error {
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("history store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO attempts
		    (session_id, reference, transcript, score, passed, mismatches, duration_ns, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err = tx.QueryRow(ctx, q,
		attempt.SessionID,
		attempt.Reference,
		attempt.Transcript,
		attempt.Score,
		attempt.Passed,
		attempt.Mismatches,
		attempt.AudioDuration.Nanoseconds(),
		attempt.CreatedAt,
	).Scan(&attempt.ID)
	if err != nil {
		return fmt.Errorf("history store: insert attempt: %w", err)
	}

	const missQ = `
		INSERT INTO word_misses (attempt_id, session_id, word, created_at)
		VALUES ($1, $2, $3, $4)`
	for _, word := range missedWords(attempt.Mismatches) {
		if _, err := tx.Exec(ctx, missQ, attempt.ID, attempt.SessionID, word, attempt.CreatedAt); err != nil {
			return fmt.Errorf("history store: insert word miss: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("history store: commit: %w", err)
	}
	return nil
}

// ListAttempts implements [Recorder].
func (s *Store) ListAttempts(ctx context.Context, sessionID string, limit int) ([]Attempt, error) {
	q := `
		SELECT id, session_id, reference, transcript, score, passed, mismatches, duration_ns, created_at
		FROM   attempts`
	args := []any{}
	if sessionID != "" {
		q += "\n\t\tWHERE  session_id = $1"
		args = append(args, sessionID)
	}
	q += "\n\t\tORDER  BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf("\n\t\tLIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history store: list attempts: %w", err)
	}
	return collectAttempts(rows)
}

// TroubleWords implements [Recorder].
func (s *Store) TroubleWords(ctx context.Context, sessionID string, limit int) ([]WordStat, error) {
	q := `
		SELECT word, count(*) AS misses, max(created_at) AS last_missed_at
		FROM   word_misses`
	args := []any{}
	if sessionID != "" {
		q += "\n\t\tWHERE  session_id = $1"
		args = append(args, sessionID)
	}
	q += "\n\t\tGROUP  BY word\n\t\tORDER  BY misses DESC, last_missed_at DESC"
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf("\n\t\tLIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history store: trouble words: %w", err)
	}

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (WordStat, error) {
		var ws WordStat
		if err := row.Scan(&ws.Word, &ws.Misses, &ws.LastMissedAt); err != nil {
			return WordStat{}, err
		}
		return ws, nil
	})
	if err != nil {
		return nil, fmt.Errorf("history store: scan rows: %w", err)
	}
	if stats == nil {
		stats = []WordStat{}
	}
	return stats, nil
}

// collectAttempts scans pgx rows into a slice of Attempt values.
func collectAttempts(rows pgx.Rows) ([]Attempt, error) {
	attempts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Attempt, error) {
		var (
			a          Attempt
			durationNS int64
		)
		if err := row.Scan(
			&a.ID,
			&a.SessionID,
			&a.Reference,
			&a.Transcript,
			&a.Score,
			&a.Passed,
			&a.Mismatches,
			&durationNS,
			&a.CreatedAt,
		); err != nil {
			return Attempt{}, err
		}
		a.AudioDuration = time.Duration(durationNS)
		return a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("history store: scan rows: %w", err)
	}
	if attempts == nil {
		attempts = []Attempt{}
	}
	return attempts, nil
}
