package store

import (
	"errors"
	"sync"
)

// MemKV is an in-memory KV implementation. Used by tests and as a scratch
// store when no database path is configured.
type MemKV struct {
	mu   sync.RWMutex
	data map[string]string

	// FailWrites makes Set/Delete return ErrWriteFailed when set. Lets tests
	// exercise write-failure propagation.
	FailWrites bool
}

// ErrWriteFailed is returned by MemKV when FailWrites is enabled.
var ErrWriteFailed = errors.New("kv: write failed")

// NewMemKV returns an empty in-memory store.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string]string)}
}

// Get returns the value for key.
func (m *MemKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemKV) Set(key, value string) error {
	if m.FailWrites {
		return ErrWriteFailed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete removes key.
func (m *MemKV) Delete(key string) error {
	if m.FailWrites {
		return ErrWriteFailed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close is a no-op.
func (m *MemKV) Close() error { return nil }
