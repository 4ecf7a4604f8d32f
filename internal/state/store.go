// Package state persists per-station runtime state (archive cursor and
// accumulator snapshot) in a local SQLite database so sessions resume
// across restarts without reprocessing history.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/wxforge/wxforge/internal/accum"
	"github.com/wxforge/wxforge/internal/archive"
)

const schema = `
CREATE TABLE IF NOT EXISTS archive_cursor (
	station      TEXT PRIMARY KEY,
	last_applied INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS accumulator (
	station    TEXT PRIMARY KEY,
	snapshot   BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store wraps the SQLite state database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the state database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening state database %s: %w", path, err)
	}
	// SQLite handles one writer at a time; the state store is written
	// from session goroutines, so serialize at the pool level.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCursor upserts a station's archive cursor.
func (s *Store) SaveCursor(station string, c archive.Cursor) error {
	_, err := s.db.Exec(
		`INSERT INTO archive_cursor (station, last_applied) VALUES (?, ?)
		 ON CONFLICT(station) DO UPDATE SET last_applied = excluded.last_applied`,
		station, c.LastApplied.UnixNano())
	if err != nil {
		return fmt.Errorf("saving cursor for %s: %w", station, err)
	}
	return nil
}

// LoadCursor returns a station's persisted cursor, or a zero cursor if
// none has been saved yet.
func (s *Store) LoadCursor(station string) (archive.Cursor, error) {
	var nanos int64
	err := s.db.QueryRow(
		`SELECT last_applied FROM archive_cursor WHERE station = ?`, station).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return archive.Cursor{}, nil
	}
	if err != nil {
		return archive.Cursor{}, fmt.Errorf("loading cursor for %s: %w", station, err)
	}
	return archive.Cursor{LastApplied: time.Unix(0, nanos).UTC()}, nil
}

// SaveAccumulator upserts a station's accumulator state as a msgpack
// blob.
func (s *Store) SaveAccumulator(station string, st *accum.State) error {
	blob, err := msgpack.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding accumulator for %s: %w", station, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO accumulator (station, snapshot, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(station) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		station, blob, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("saving accumulator for %s: %w", station, err)
	}
	return nil
}

// LoadAccumulator returns a station's persisted accumulator state, or
// nil if none has been saved yet.
func (s *Store) LoadAccumulator(station string) (*accum.State, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT snapshot FROM accumulator WHERE station = ?`, station).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading accumulator for %s: %w", station, err)
	}

	var st accum.State
	if err := msgpack.Unmarshal(blob, &st); err != nil {
		return nil, fmt.Errorf("decoding accumulator for %s: %w", station, err)
	}
	return &st, nil
}
