package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB stores snapshots in PostgreSQL.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Load returns the snapshot stored under key.
func (db *DB) Load(ctx context.Context, key string) (*Snapshot, error) {
	var snap Snapshot
	err := db.Pool.QueryRow(ctx,
		`SELECT version, data, saved_at FROM snapshots WHERE key = $1`, key,
	).Scan(&snap.Version, &snap.State, &snap.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading snapshot %q: %v", ErrPersistence, key, err)
	}
	return &snap, nil
}

// Save upserts the snapshot stored under key.
func (db *DB) Save(ctx context.Context, key string, snap *Snapshot) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO snapshots (key, version, data, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
			SET version = EXCLUDED.version, data = EXCLUDED.data, saved_at = EXCLUDED.saved_at
	`, key, snap.Version, []byte(snap.State), snap.SavedAt)
	if err != nil {
		return fmt.Errorf("%w: saving snapshot %q: %v", ErrPersistence, key, err)
	}
	return nil
}
