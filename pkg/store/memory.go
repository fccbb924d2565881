package store

import (
	"context"
	"sort"
	"sync"

	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]bucket.State
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]bucket.State)}
}

// Save stores the snapshot under name, rejecting stale ones.
func (m *MemoryStore) Save(ctx context.Context, name string, state bucket.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return lgerrors.ErrClosed
	}
	if current, ok := m.states[name]; ok && current.LastUpdate > state.LastUpdate {
		return ErrStaleState
	}
	m.states[name] = state
	return nil
}

// Load returns the snapshot stored under name.
func (m *MemoryStore) Load(ctx context.Context, name string) (bucket.State, error) {
	if err := ctx.Err(); err != nil {
		return bucket.State{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return bucket.State{}, lgerrors.ErrClosed
	}
	state, ok := m.states[name]
	if !ok {
		return bucket.State{}, ErrNotFound
	}
	return state, nil
}

// Delete removes the snapshot stored under name.
func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return lgerrors.ErrClosed
	}
	if _, ok := m.states[name]; !ok {
		return ErrNotFound
	}
	delete(m.states, name)
	return nil
}

// List returns the names of all stored snapshots in sorted order.
func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, lgerrors.ErrClosed
	}
	names := make([]string, 0, len(m.states))
	for name := range m.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close marks the store closed. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
