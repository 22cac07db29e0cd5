// Package storage persists the exchange session as a three-entry key/value
// snapshot in SQLite. Each entry (roster, assignments, step) is stored and
// parsed independently, so partial corruption degrades that one piece to
// its default instead of losing the whole session.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/logger"
	_ "modernc.org/sqlite"

	"giftexchange/internal/exchange"
	"giftexchange/internal/models"
)

const (
	keyRoster      = "roster"
	keyAssignments = "assignments"
	keyStep        = "step"
)

// SnapshotStore is the SQLite-backed implementation of exchange.Store.
type SnapshotStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	store := &SnapshotStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an existing connection, initializing the schema. Used by
// tests with an in-memory database.
func NewWithDB(db *sql.DB) (*SnapshotStore, error) {
	store := &SnapshotStore{db: db}
	if err := store.init(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SnapshotStore) init() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS snapshot (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save writes all three entries in one transaction; last write wins.
func (s *SnapshotStore) Save(snap exchange.Snapshot) error {
	entries := []struct {
		key   string
		value any
	}{
		{keyRoster, snap.Roster},
		{keyAssignments, snap.Assignments},
		{keyStep, snap.Step},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot write: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		encoded, err := json.Marshal(e.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.key, err)
		}
		_, err = tx.Exec(
			"INSERT INTO snapshot (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			e.key, string(encoded),
		)
		if err != nil {
			return fmt.Errorf("write %s: %w", e.key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot write: %w", err)
	}
	return nil
}

// Load reads the snapshot back. Best-effort per entry: a missing or
// malformed entry leaves that field at its zero value and is logged, never
// returned as an error. The caller treats zero fields as defaults.
func (s *SnapshotStore) Load() (exchange.Snapshot, error) {
	var snap exchange.Snapshot

	if raw, ok := s.read(keyRoster); ok {
		if err := json.Unmarshal([]byte(raw), &snap.Roster); err != nil {
			logger.Warningf("Discarding malformed roster entry: %v", err)
			snap.Roster = nil
		}
	}
	if raw, ok := s.read(keyAssignments); ok {
		if err := json.Unmarshal([]byte(raw), &snap.Assignments); err != nil {
			logger.Warningf("Discarding malformed assignments entry: %v", err)
			snap.Assignments = nil
		}
	}
	if raw, ok := s.read(keyStep); ok {
		var step models.Step
		if err := json.Unmarshal([]byte(raw), &step); err != nil || !step.Valid() {
			logger.Warningf("Discarding malformed step entry %q: %v", raw, err)
		} else {
			snap.Step = step
		}
	}
	return snap, nil
}

// read fetches one raw entry. Absence is not an error.
func (s *SnapshotStore) read(key string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM snapshot WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		logger.Warningf("Failed to read snapshot entry %s: %v", key, err)
		return "", false
	}
	return value, true
}

// Clear drops all persisted entries.
func (s *SnapshotStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM snapshot"); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
