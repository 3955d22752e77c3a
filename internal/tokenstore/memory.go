package tokenstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps session namespaces in process memory. Used in development
// and tests; production deployments use the Redis store so sessions survive
// gateway restarts.
type MemoryStore struct {
	mu        sync.RWMutex
	data      map[string]map[string]string
	deadlines map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:      make(map[string]map[string]string),
		deadlines: make(map[string]time.Time),
	}
}

func (m *MemoryStore) Get(ctx context.Context, sid string, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ns, ok := m.data[sid]
	if !ok {
		return "", nil
	}
	return ns[key], nil
}

func (m *MemoryStore) Set(ctx context.Context, sid string, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.data[sid]
	if !ok {
		ns = make(map[string]string)
		m.data[sid] = ns
	}
	ns[key] = value
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, sid string, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ns, ok := m.data[sid]; ok {
		delete(ns, key)
	}
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, sid)
	delete(m.deadlines, sid)
	return nil
}

// ExpireAt stamps a namespace deadline for the sweeper. The Redis store does
// not need this; its namespaces expire via TTL.
func (m *MemoryStore) ExpireAt(ctx context.Context, sid string, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deadlines[sid] = deadline
	return nil
}

// Sweep removes every namespace whose deadline has passed and returns the
// number removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for sid, deadline := range m.deadlines {
		if deadline.Before(now) {
			delete(m.data, sid)
			delete(m.deadlines, sid)
			removed++
		}
	}
	return removed
}
