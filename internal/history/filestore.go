package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"
)

// Compile-time interface check.
var _ Recorder = (*FileStore)(nil)

// FileStore persists attempts as append-only JSON lines in a local file.
// It suits single-user setups where running PostgreSQL is overkill; list
// and aggregate queries re-read the whole file. Safe for concurrent use.
type FileStore struct {
	mu     sync.Mutex
	path   string
	nextID int64
}

// NewFileStore creates a FileStore that writes to the given path.
// The file is created on first save if it does not exist.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, nextID: 1}

	// Resume the ID sequence from an existing file.
	attempts, err := fs.readAll()
	if err != nil {
		return nil, err
	}
	for _, a := range attempts {
		if a.ID >= fs.nextID {
			fs.nextID = a.ID + 1
		}
	}
	return fs, nil
}

// SaveAttempt implements [Recorder]. It appends the attempt as one JSON line.
// The attempt's ID is only assigned once the line has been written, so a
// failed save never leaves the caller holding an ID for a record that was
// never persisted.
func (f *FileStore) SaveAttempt(_ context.Context, attempt *Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := *attempt
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.ID = f.nextID

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history filestore: marshal: %w", err)
	}
	data = append(data, '\n')

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("history filestore: open file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("history filestore: write: %w", err)
	}
	f.nextID++
	*attempt = rec
	return nil
}

// ListAttempts implements [Recorder].
func (f *FileStore) ListAttempts(_ context.Context, sessionID string, limit int) ([]Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return nil, err
	}

	out := make([]Attempt, 0, len(all))
	// Newest first.
	for i := len(all) - 1; i >= 0; i-- {
		if sessionID != "" && all[i].SessionID != sessionID {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// TroubleWords implements [Recorder].
func (f *FileStore) TroubleWords(_ context.Context, sessionID string, limit int) ([]WordStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return nil, err
	}

	byWord := make(map[string]*WordStat)
	for _, a := range all {
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

// readAll parses every JSON line in the file. A missing file is an empty store.
func (f *FileStore) readAll() ([]Attempt, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("history filestore: open file: %w", err)
	}
	defer file.Close()

	var attempts []Attempt
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var a Attempt
		if err := json.Unmarshal(line, &a); err != nil {
			return nil, fmt.Errorf("history filestore: parse line: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("history filestore: scan: %w", err)
	}
	return attempts, nil
}
