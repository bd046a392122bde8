package storage

import (
	"context"
	"slices"
	"sync"
)

// Memory keeps snapshots in process memory. Used for ephemeral runs and tests.
type Memory struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{snaps: make(map[string]Snapshot)}
}

func (m *Memory) Load(_ context.Context, key string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[key]
	if !ok {
		return nil, ErrNotFound
	}
	snap.State = slices.Clone(snap.State)
	return &snap, nil
}

func (m *Memory) Save(_ context.Context, key string, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *snap
	c.State = slices.Clone(snap.State)
	m.snaps[key] = c
	return nil
}
