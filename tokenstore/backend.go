package tokenstore

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("key not found")

// Backend is the durable key/value storage behind a Store
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend keeps entries for the life of the process
type MemoryBackend struct {
	entries map[string]string
	lock    sync.RWMutex
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.entries[key] = value
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// Len is the number of stored entries
func (m *MemoryBackend) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.entries)
}
