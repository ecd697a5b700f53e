package repository

import (
	"context"
	"sync"
)

// Memory is a process-local slot store.
type Memory struct {
	mu    sync.RWMutex
	slots map[string]string
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[string]string)}
}

func (m *Memory) Read(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.slots[name]
	if !ok {
		return "", ErrSlotNotFound
	}

	return value, nil
}

func (m *Memory) Write(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[name] = value

	return nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, name)

	return nil
}
