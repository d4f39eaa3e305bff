package datastore

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is a process-local Store for tests and single-node runs.
// Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Dataset
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Dataset)}
}

// Put creates or replaces a dataset by ID.
func (m *MemoryStore) Put(ctx context.Context, d Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[d.ID] = d
	return nil
}

// Get retrieves a dataset by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.data[id]
	if !ok {
		return Dataset{}, ErrNotFound
	}
	return d, nil
}

// List returns all datasets without documents, ordered by creation time
// with ID as tiebreaker so the order is stable.
func (m *MemoryStore) List(ctx context.Context) ([]Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Dataset, 0, len(m.data))
	for _, d := range m.data {
		d.Document = nil
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Dataset) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.Before(b.CreatedAt) {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

// Delete removes a dataset.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return ErrNotFound
	}
	delete(m.data, id)
	return nil
}

// Close does nothing for the memory store.
func (m *MemoryStore) Close(ctx context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
