package settings

import (
	"sync"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// MemoryStore is an in-memory Store for tests and the simulator.
type MemoryStore struct {
	mu       sync.Mutex
	settings logic.Settings
	writes   int

	// ReadError and WriteError, if set, are returned by Read and Write.
	ReadError  error
	WriteError error
}

// NewMemoryStore creates a store holding s. Pass a zero Settings for a
// store that has never been written.
func NewMemoryStore(s logic.Settings) *MemoryStore {
	return &MemoryStore{settings: s}
}

// Read returns the held settings.
func (m *MemoryStore) Read() (logic.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadError != nil {
		return logic.Settings{}, m.ReadError
	}
	return m.settings, nil
}

// Write replaces the held settings and marks them valid.
func (m *MemoryStore) Write(s logic.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	s.Valid = true
	m.settings = s
	m.writes++
	return nil
}

// Writes returns how many successful writes happened.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
