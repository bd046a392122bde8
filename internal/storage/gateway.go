package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Load when no snapshot is stored under the key.
	ErrNotFound = errors.New("snapshot not found")
	// ErrPersistence wraps every read or write failure of a gateway.
	ErrPersistence = errors.New("persistence failure")
)

// Snapshot is one saved copy of the application state. State is opaque to
// the gateway.
type Snapshot struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	State   json.RawMessage `json:"state"`
}

// Gateway loads and saves snapshots by key.
type Gateway interface {
	Load(ctx context.Context, key string) (*Snapshot, error)
	Save(ctx context.Context, key string, snap *Snapshot) error
}
