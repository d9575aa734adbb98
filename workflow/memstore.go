package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrStateNotFound is returned when no checkpoint exists for a job.
var ErrStateNotFound = errors.New("state not found")

// MemoryStore is an in-process StateStore for tests and single-run CLI use.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Save implements StateStore.
func (m *MemoryStore) Save(_ context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.JobID] = state
	return nil
}

// Load implements StateStore.
func (m *MemoryStore) Load(_ context.Context, jobID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[jobID]
	if !ok {
		return State{}, fmt.Errorf("%w: %s", ErrStateNotFound, jobID)
	}
	return state, nil
}

// List implements StateStore.
func (m *MemoryStore) List(_ context.Context) ([]State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	states := make([]State, 0, len(m.states))
	for _, state := range m.states {
		states = append(states, state)
	}
	return states, nil
}
