package mirror

import (
	"bytes"
	"context"
	"sync"
)

// Memory keeps slots in a map. It is the mirror of choice for tests and for
// runs that should leave nothing on disk.
type Memory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.slots[key]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[key] = bytes.Clone(value)
	return nil
}

func (m *Memory) SetMany(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.slots[k] = bytes.Clone(v)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, key)
	return nil
}

func (m *Memory) Close() error { return nil }
