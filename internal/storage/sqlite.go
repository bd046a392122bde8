package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores snapshots in dir/state.db.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite state database at dir/state.db.
func OpenSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		key      TEXT PRIMARY KEY,
		version  INTEGER NOT NULL,
		data     BLOB NOT NULL,
		saved_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Load returns the snapshot stored under key.
func (s *SQLite) Load(ctx context.Context, key string) (*Snapshot, error) {
	var (
		snap    Snapshot
		data    []byte
		savedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, data, saved_at FROM snapshots WHERE key = ?`, key,
	).Scan(&snap.Version, &data, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading snapshot %q: %v", ErrPersistence, key, err)
	}
	snap.State = data
	if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return nil, fmt.Errorf("%w: parsing saved_at of %q: %v", ErrPersistence, key, err)
	}
	return &snap, nil
}

// Save replaces the snapshot stored under key.
func (s *SQLite) Save(ctx context.Context, key string, snap *Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (key, version, data, saved_at) VALUES (?, ?, ?, ?)`,
		key, snap.Version, []byte(snap.State), snap.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: saving snapshot %q: %v", ErrPersistence, key, err)
	}
	return nil
}

// Close closes the state database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
