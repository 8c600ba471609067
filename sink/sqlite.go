package sink

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists samples to a SQLite database, one row per value, keyed by
// run id and sequence number. Each Append lands in its own transaction, so
// a run aborted mid-way leaves only whole batches behind.
type SQLite struct {
	db    *sql.DB
	runID string
	seq   int64
}

const createSamples = `
CREATE TABLE IF NOT EXISTS samples (
	run_id TEXT NOT NULL,
	seq    INTEGER NOT NULL,
	value  REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
)`

// OpenSQLite opens (creating if needed) the database at path and prepares
// the samples table. An empty runID gets a fresh UUID.
func OpenSQLite(path, runID string) (*SQLite, error) {
	if runID == "" {
		runID = uuid.NewString()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sink: open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(createSamples); err != nil {
		db.Close()
		return nil, fmt.Errorf("sink: create samples table: %w", err)
	}

	return &SQLite{db: db, runID: runID}, nil
}

// RunID returns the id under which this sink stores its samples.
func (s *SQLite) RunID() string { return s.runID }

// Append stores one batch of values in a single transaction.
func (s *SQLite) Append(values []float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sink: begin: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO samples (run_id, seq, value) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sink: prepare: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		if _, err := stmt.Exec(s.runID, s.seq, v); err != nil {
			tx.Rollback()
			return fmt.Errorf("sink: insert: %w", err)
		}
		s.seq++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sink: commit: %w", err)
	}
	return nil
}

// Count returns how many samples this run has stored so far.
func (s *SQLite) Count() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM samples WHERE run_id = ?`, s.runID).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }
