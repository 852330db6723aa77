package tokenstore

import (
	"sync"
	"time"
)

// Memory is a process local Storage. Tokens kept in it do not survive a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory returns an empty Memory storage.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]memoryEntry)}
}

// Get returns a copy of the value under key, nil when absent or expired.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || (!e.expiresAt.IsZero() && !time.Now().Before(e.expiresAt)) {
		return nil, nil
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)

	return out, nil
}

// Set stores a copy of val under key.
func (m *Memory) Set(key string, val []byte, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(val))
	copy(buf, val)

	e := memoryEntry{value: buf}
	if exp > 0 {
		e.expiresAt = time.Now().Add(exp)
	}

	m.data[key] = e

	return nil
}

// Delete removes key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

// Reset removes all keys.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]memoryEntry)

	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
