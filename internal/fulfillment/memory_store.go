package fulfillment

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory EventStore for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]*Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]*Event)}
}

func (m *MemoryStore) MarkProcessed(ctx context.Context, event *Event) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.events[event.ID]; exists {
		return false, nil
	}
	cp := *event
	m.events[event.ID] = &cp
	return true, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	event, ok := m.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	cp := *event
	return &cp, nil
}
