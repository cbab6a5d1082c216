// Package state keeps a history of synchronization passes in SQLite.
//
// Only outcomes are recorded. List freshness is tracked in memory by the
// fetch cache and is never persisted, so a restart always re-downloads.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"grimm.is/setsync/internal/clock"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("state store is closed")

// Record is the outcome of one source in one pass.
type Record struct {
	PassID    string
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Entries   int
	Result    string
	Error     string
}

// Options configures the SQLite store.
type Options struct {
	Path    string      // Database file path (":memory:" for in-memory)
	WALMode bool        // Enable WAL mode for better concurrency
	Clock   clock.Clock // Optional: time source (defaults to the real clock)
}

// DefaultOptions returns sensible defaults.
func DefaultOptions(path string) Options {
	return Options{
		Path:    path,
		WALMode: true,
	}
}

// Store is a SQLite-backed pass history.
type Store struct {
	db     *sql.DB
	clock  clock.Clock
	mu     sync.Mutex
	closed bool
}

// Open opens or creates the history database.
func Open(opts Options) (*Store, error) {
	// Open database with appropriate flags
	dsn := opts.Path
	if opts.WALMode && opts.Path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every pooled connection to ":memory:" would be a separate database.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, clock: clock.Or(opts.Clock)}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the database tables.
func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS passes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pass_id TEXT NOT NULL,
			source TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			entries INTEGER NOT NULL,
			result TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_passes_source ON passes(source, id);
		CREATE INDEX IF NOT EXISTS idx_passes_started ON passes(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordPass stores the records of one pass atomically.
func (s *Store) RecordPass(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO passes (pass_id, source, started_at, duration_ns, entries, result, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.PassID, r.Source, r.StartedAt.UnixNano(),
			int64(r.Duration), r.Entries, r.Result, r.Error); err != nil {
			return fmt.Errorf("failed to insert record for %s: %w", r.Source, err)
		}
	}
	return tx.Commit()
}

// Latest returns the most recent record of every source, ordered by name.
func (s *Store) Latest(ctx context.Context) ([]Record, error) {
	return s.query(ctx, `
		SELECT pass_id, source, started_at, duration_ns, entries, result, error
		FROM passes p
		WHERE id = (SELECT MAX(id) FROM passes WHERE source = p.source)
		ORDER BY source`)
}

// History returns up to limit records of source, newest first.
func (s *Store) History(ctx context.Context, source string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, `
		SELECT pass_id, source, started_at, duration_ns, entries, result, error
		FROM passes
		WHERE source = ?
		ORDER BY id DESC
		LIMIT ?`, source, limit)
}

// Prune deletes records started more than retention ago.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	cutoff := s.clock.Now().Add(-retention).UnixNano()
	res, err := s.db.ExecContext(ctx, "DELETE FROM passes WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var started, dur int64
		if err := rows.Scan(&r.PassID, &r.Source, &started, &dur, &r.Entries, &r.Result, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		r.Duration = time.Duration(dur)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
